package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/database"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

type testEnv struct {
	router http.Handler
	svc    *bank.Service
	mom    *model.Account
	rex    *model.Account
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := bank.New(store.New(db, store.SQLite), nil, logger)
	ctx := context.Background()

	mom, err := svc.Onboard(ctx, "auth-mom", bank.Onboarding{Username: "mom", DisplayName: "Mom", Role: model.RoleParent})
	if err != nil {
		t.Fatalf("onboard mom: %v", err)
	}
	rex, err := svc.Onboard(ctx, "auth-rex", bank.Onboarding{Username: "rex", DisplayName: "Rex", Role: model.RoleChild, ParentID: &mom.ID})
	if err != nil {
		t.Fatalf("onboard rex: %v", err)
	}

	accounts := NewAccountHandler(svc, logger)
	chores := NewChoreHandler(svc, logger)
	goals := NewGoalHandler(svc, logger)
	learning := NewLearningHandler(svc, logger)

	// X-Test-Subject stands in for the identity middleware.
	byID := map[string]*model.Account{"auth-mom": mom, "auth-rex": rex}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sub := req.Header.Get("X-Test-Subject")
			ac := auth.AuthContext{Subject: sub}
			if a, ok := byID[sub]; ok {
				ac.AccountID, ac.FamilyID, ac.Role = a.ID, a.FamilyID(), a.Role
			}
			next.ServeHTTP(w, req.WithContext(auth.WithAuth(req.Context(), ac)))
		})
	})
	r.Get("/api/me", accounts.Me)
	r.Post("/api/onboard", accounts.Onboard)
	r.Put("/api/me/pin", accounts.SetPIN)
	r.Get("/api/children", accounts.Children)
	r.Get("/api/transactions", accounts.Transactions)
	r.Post("/api/children/{id}/allowance", accounts.Allowance)
	r.Post("/api/accounts/{id}/spend", accounts.Spend)
	r.Get("/api/accounts/{id}/reconcile", accounts.Reconcile)
	r.Get("/api/chores", chores.List)
	r.Post("/api/chores", chores.Create)
	r.Patch("/api/chores/{id}/status", chores.SetStatus)
	r.Get("/api/goals", goals.List)
	r.Post("/api/goals", goals.Create)
	r.Post("/api/goals/{id}/contribute", goals.Contribute)
	r.Get("/api/modules", learning.Modules)
	r.Post("/api/modules/{id}/complete", learning.CompleteModule)
	r.Get("/api/moods", learning.Moods)
	r.Post("/api/moods", learning.RecordMood)

	return &testEnv{router: r, svc: svc, mom: mom, rex: rex}
}

func (e *testEnv) do(t *testing.T, subject, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("X-Test-Subject", subject)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindInvalidTransition, http.StatusConflict},
		{apperr.KindInvalidState, http.StatusConflict},
		{apperr.KindInsufficientFunds, http.StatusUnprocessableEntity},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestAmountAcceptsNumberOrDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`1250`, 1250, false},
		{`"12.50"`, 1250, false},
		{`"3"`, 300, false},
		{`"0.125"`, 0, true},
		{`"184467440737095516.17"`, 0, true},
		{`"abc"`, 0, true},
		{`1.5`, 0, true},
	}
	for _, tt := range tests {
		var a amount
		err := json.Unmarshal([]byte(tt.in), &a)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && int64(a) != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, a, tt.want)
		}
	}
}

func TestMe(t *testing.T) {
	e := setupEnv(t)

	rec := e.do(t, "auth-rex", "GET", "/api/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	if got["username"] != "rex" || got["balance_display"] != "0.00" {
		t.Errorf("profile = %v", got)
	}

	rec = e.do(t, "auth-stranger", "GET", "/api/me", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown subject status = %d, want 404", rec.Code)
	}
}

func TestOnboardHandler(t *testing.T) {
	e := setupEnv(t)

	body := `{"username":"trike","display_name":"Trike","role":"child","parent_id":` + strconv.FormatInt(e.mom.ID, 10) + `}`
	rec := e.do(t, "auth-trike", "POST", "/api/onboard", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	if got["dinosaur_color"] != "green" || got["role"] != "child" {
		t.Errorf("account = %v", got)
	}

	rec = e.do(t, "auth-trike", "POST", "/api/onboard", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second onboard status = %d, want 400", rec.Code)
	}

	rec = e.do(t, "auth-x", "POST", "/api/onboard", `{nope`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestChoreLifecycleOverHTTP(t *testing.T) {
	e := setupEnv(t)

	body := `{"assignee_id":` + strconv.FormatInt(e.rex.ID, 10) + `,"title":"Feed the stegosaurus","reward_value":"5.00"}`
	rec := e.do(t, "auth-mom", "POST", "/api/chores", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	chore := decode[choreResponse](t, rec)
	if chore.RewardValue != 500 || chore.RewardDisplay != "5.00" || chore.Status != model.ChoreStatusPending {
		t.Fatalf("chore = %+v", chore)
	}
	statusPath := "/api/chores/" + strconv.FormatInt(chore.ID, 10) + "/status"

	// Children cannot create chores.
	if rec := e.do(t, "auth-rex", "POST", "/api/chores", body); rec.Code != http.StatusForbidden {
		t.Errorf("child create status = %d, want 403", rec.Code)
	}

	// Skipping completion is an invalid transition.
	if rec := e.do(t, "auth-mom", "PATCH", statusPath, `{"status":"approved"}`); rec.Code != http.StatusConflict {
		t.Errorf("pending->approved status = %d, want 409", rec.Code)
	}

	if rec := e.do(t, "auth-rex", "PATCH", statusPath, `{"status":"completed"}`); rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := e.do(t, "auth-rex", "PATCH", statusPath, `{"status":"approved"}`); rec.Code != http.StatusForbidden {
		t.Errorf("child approve status = %d, want 403", rec.Code)
	}
	rec = e.do(t, "auth-mom", "PATCH", statusPath, `{"status":"approved"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := e.do(t, "auth-mom", "PATCH", statusPath, `{"status":"approved"}`); rec.Code != http.StatusConflict {
		t.Errorf("re-approve status = %d, want 409", rec.Code)
	}

	rec = e.do(t, "auth-rex", "GET", "/api/transactions", "")
	txs := decode[[]transactionResponse](t, rec)
	if len(txs) != 1 || txs[0].Amount != 500 || txs[0].Kind != model.KindEarned || txs[0].AmountDisplay != "5.00" {
		t.Errorf("transactions = %+v", txs)
	}

	rec = e.do(t, "auth-mom", "GET", "/api/chores?status=approved", "")
	list := decode[[]choreResponse](t, rec)
	if len(list) != 1 || list[0].ID != chore.ID {
		t.Errorf("approved chores = %+v", list)
	}

	if rec := e.do(t, "auth-mom", "PATCH", "/api/chores/abc/status", `{"status":"approved"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	if rec := e.do(t, "auth-mom", "PATCH", "/api/chores/999/status", `{"status":"approved"}`); rec.Code != http.StatusNotFound {
		t.Errorf("missing chore status = %d, want 404", rec.Code)
	}
}

func TestGoalsOverHTTP(t *testing.T) {
	e := setupEnv(t)
	allowancePath := "/api/children/" + strconv.FormatInt(e.rex.ID, 10) + "/allowance"

	rec := e.do(t, "auth-mom", "POST", allowancePath, `{"amount":1000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("allowance status = %d, body %s", rec.Code, rec.Body)
	}
	entry := decode[entryResponse](t, rec)
	if entry.Balance != 1000 || entry.BalanceDisplay != "10.00" || entry.Transaction.Reason != "Allowance" {
		t.Errorf("entry = %+v", entry)
	}

	if rec := e.do(t, "auth-mom", "POST", "/api/goals", `{"title":"T-rex plush","target_amount":1000}`); rec.Code != http.StatusForbidden {
		t.Errorf("parent create goal status = %d, want 403", rec.Code)
	}
	rec = e.do(t, "auth-rex", "POST", "/api/goals", `{"title":"T-rex plush","target_amount":1000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body)
	}
	g := decode[goalResponse](t, rec)
	contributePath := "/api/goals/" + strconv.FormatInt(g.ID, 10) + "/contribute"

	rec = e.do(t, "auth-rex", "POST", contributePath, `{"amount":800}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d, body %s", rec.Code, rec.Body)
	}
	g = decode[goalResponse](t, rec)
	if g.CurrentAmount != 800 || g.Remaining != 200 || g.Status != model.GoalStatusActive {
		t.Errorf("goal = %+v", g)
	}

	if rec := e.do(t, "auth-rex", "POST", contributePath, `{"amount":300}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraw status = %d, want 422", rec.Code)
	}
	if rec := e.do(t, "auth-rex", "POST", contributePath, `{"amount":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero amount status = %d, want 400", rec.Code)
	}

	rec = e.do(t, "auth-rex", "POST", contributePath, `{"amount":"2.00"}`)
	g = decode[goalResponse](t, rec)
	if g.Status != model.GoalStatusReached || g.Remaining != 0 {
		t.Errorf("goal = %+v", g)
	}
	if rec := e.do(t, "auth-rex", "POST", contributePath, `{"amount":1}`); rec.Code != http.StatusConflict {
		t.Errorf("reached goal status = %d, want 409", rec.Code)
	}

	rec = e.do(t, "auth-mom", "GET", "/api/goals?user_id="+strconv.FormatInt(e.rex.ID, 10), "")
	if goals := decode[[]goalResponse](t, rec); len(goals) != 1 {
		t.Errorf("parent view of goals = %+v", goals)
	}
	if rec := e.do(t, "auth-mom", "GET", "/api/goals?user_id=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad user_id status = %d, want 400", rec.Code)
	}

	rec = e.do(t, "auth-mom", "GET", "/api/accounts/"+strconv.FormatInt(e.rex.ID, 10)+"/reconcile", "")
	recon := decode[bank.Reconciliation](t, rec)
	if !recon.Consistent || recon.Balance != 0 {
		t.Errorf("reconciliation = %+v", recon)
	}
}

func TestPINHeader(t *testing.T) {
	e := setupEnv(t)

	if rec := e.do(t, "auth-mom", "PUT", "/api/me/pin", `{"pin":"12a4"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad pin status = %d, want 400", rec.Code)
	}
	if rec := e.do(t, "auth-mom", "PUT", "/api/me/pin", `{"pin":"2468"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("set pin status = %d", rec.Code)
	}

	path := "/api/children/" + strconv.FormatInt(e.rex.ID, 10) + "/allowance"
	if rec := e.do(t, "auth-mom", "POST", path, `{"amount":100}`); rec.Code != http.StatusForbidden {
		t.Errorf("missing pin status = %d, want 403", rec.Code)
	}
	if rec := e.do(t, "auth-mom", "POST", path, `{"amount":100}`, PINHeader, "2468"); rec.Code != http.StatusCreated {
		t.Errorf("with pin status = %d, want 201", rec.Code)
	}
}

func TestSpendAndChildren(t *testing.T) {
	e := setupEnv(t)

	rec := e.do(t, "auth-mom", "GET", "/api/children", "")
	children := decode[[]map[string]any](t, rec)
	if len(children) != 1 || children[0]["username"] != "rex" {
		t.Errorf("children = %v", children)
	}
	if rec := e.do(t, "auth-rex", "GET", "/api/children", ""); rec.Code != http.StatusForbidden {
		t.Errorf("child list children status = %d, want 403", rec.Code)
	}

	spendPath := "/api/accounts/" + strconv.FormatInt(e.rex.ID, 10) + "/spend"
	if rec := e.do(t, "auth-rex", "POST", spendPath, `{"amount":100,"reason":"Fossil kit"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("spend with no balance status = %d, want 422", rec.Code)
	}
	if rec := e.do(t, "auth-rex", "POST", spendPath, `{"amount":100}`); rec.Code != http.StatusBadRequest {
		t.Errorf("spend without reason status = %d, want 400", rec.Code)
	}
}

func TestLearningOverHTTP(t *testing.T) {
	e := setupEnv(t)

	rec := e.do(t, "auth-rex", "POST", "/api/modules/saving-101/complete", `{"score":90}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body)
	}
	rec = e.do(t, "auth-rex", "POST", "/api/modules/budgets/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete without body status = %d, body %s", rec.Code, rec.Body)
	}
	rec = e.do(t, "auth-mom", "GET", "/api/modules?user_id="+strconv.FormatInt(e.rex.ID, 10), "")
	if got := decode[[]model.ModuleProgress](t, rec); len(got) != 2 {
		t.Errorf("progress = %+v", got)
	}

	if rec := e.do(t, "auth-rex", "POST", "/api/moods", `{"mood":"grumpy"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad mood status = %d, want 400", rec.Code)
	}
	if rec := e.do(t, "auth-rex", "POST", "/api/moods", `{"mood":"happy"}`); rec.Code != http.StatusCreated {
		t.Errorf("record mood status = %d", rec.Code)
	}
	rec = e.do(t, "auth-rex", "GET", "/api/moods", "")
	if got := decode[[]model.DailyMood](t, rec); len(got) != 1 || got[0].Mood != model.MoodHappy {
		t.Errorf("moods = %+v", got)
	}
}
