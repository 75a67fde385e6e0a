package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/model"
)

// TokenVerifier turns a bearer token into an identity provider subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ProfileLookup finds the account linked to a subject, or nil.
type ProfileLookup interface {
	GetAccountByAuthID(ctx context.Context, authID string) (*model.Account, error)
}

// RequireIdentity validates the bearer token and populates AuthContext. The
// account fields are filled in when the subject has onboarded.
func RequireIdentity(verifier TokenVerifier, profiles ProfileLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				// Browsers cannot set headers on websocket upgrades.
				token = r.URL.Query().Get("access_token")
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
				return
			}

			ac := auth.AuthContext{Subject: subject}
			acct, err := profiles.GetAccountByAuthID(r.Context(), subject)
			if err != nil {
				logger.Error("load profile", "subject", subject, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL")
				return
			}
			if acct != nil {
				ac.AccountID = acct.ID
				ac.FamilyID = acct.FamilyID()
				ac.Role = acct.Role
				annotateAccount(r.Context(), acct.ID)
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireProfile rejects requests from subjects that have not onboarded yet.
func RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || !ac.HasProfile() {
			writeError(w, http.StatusForbidden, "profile not found", "PROFILE_MISSING")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
