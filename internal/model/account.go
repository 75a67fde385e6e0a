package model

import "time"

// Role is the tagged variant every policy decision switches on.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

type Account struct {
	ID            int64     `json:"id"`
	AuthID        string    `json:"-"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Role          Role      `json:"role"`
	ParentID      *int64    `json:"parent_id"`
	Balance       int64     `json:"balance"`
	DinosaurColor string    `json:"dinosaur_color"`
	HasPIN        bool      `json:"has_pin"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *Account) IsParent() bool {
	return a.Role == RoleParent
}

// FamilyID is the id of the managing parent for children and the account's
// own id for parents. Realtime notifications are scoped by it.
func (a *Account) FamilyID() int64 {
	if a.ParentID != nil {
		return *a.ParentID
	}
	return a.ID
}

// ManagedBy reports whether parentID is the account's managing parent.
func (a *Account) ManagedBy(parentID int64) bool {
	return a.ParentID != nil && *a.ParentID == parentID
}
