package auth

import (
	"context"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/model"
)

type contextKey struct{}

// AuthContext is what the auth middleware learns about a request. Subject is
// always set; the account fields are zero until the subject has onboarded.
type AuthContext struct {
	Subject   string
	AccountID int64
	FamilyID  int64
	Role      model.Role
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// HasProfile reports whether the subject is linked to an account.
func (ac AuthContext) HasProfile() bool {
	return ac.AccountID != 0
}

func (ac AuthContext) Principal() access.Principal {
	return access.Principal{AccountID: ac.AccountID, Role: ac.Role}
}

func Subject(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.Subject
}

func AccountID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.AccountID
}
