// Package access is the single policy function deciding what a principal may
// do. Nothing else in the service branches on role for authorization.
package access

import (
	"github.com/dukerupert/dinobank/internal/model"
)

// Principal is the authenticated actor of a request. It is passed explicitly
// to every core operation.
type Principal struct {
	AccountID int64
	Role      model.Role
}

func (p Principal) IsParent() bool { return p.Role == model.RoleParent }
func (p Principal) IsChild() bool  { return p.Role == model.RoleChild }

type Action int

const (
	CompleteChore Action = iota
	ReviewChore
	CreateChore
	ReadChores
	CreateGoal
	ContributeGoal
	ReadGoals
	ListChildren
	ReadLedger
	GrantAllowance
	RecordSpend
	ReadProgress
)

var actionNames = map[Action]string{
	CompleteChore:  "complete_chore",
	ReviewChore:    "review_chore",
	CreateChore:    "create_chore",
	ReadChores:     "read_chores",
	CreateGoal:     "create_goal",
	ContributeGoal: "contribute_goal",
	ReadGoals:      "read_goals",
	ListChildren:   "list_children",
	ReadLedger:     "read_ledger",
	GrantAllowance: "grant_allowance",
	RecordSpend:    "record_spend",
	ReadProgress:   "read_progress",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Target is the entity an action is evaluated against. Which fields matter
// depends on the action; Account is the account being read or acted on
// (for chores, the assignee).
type Target struct {
	Chore   *model.Chore
	Account *model.Account
	Goal    *model.Goal
}

// Allowed reports whether p may perform a on t. Missing target fields deny.
func Allowed(p Principal, a Action, t Target) bool {
	switch a {
	case CompleteChore:
		return p.IsChild() && t.Chore != nil && t.Chore.AssigneeID == p.AccountID

	case ReviewChore:
		if !p.IsParent() || t.Chore == nil {
			return false
		}
		if t.Chore.CreatorID == p.AccountID {
			return true
		}
		return t.Account != nil && t.Account.ID == t.Chore.AssigneeID && t.Account.ManagedBy(p.AccountID)

	case CreateChore:
		return p.IsParent() && t.Account != nil && t.Account.Role == model.RoleChild && t.Account.ManagedBy(p.AccountID)

	case ReadChores, ReadGoals, ReadLedger, ReadProgress:
		return selfOrParent(p, t.Account)

	case CreateGoal:
		return p.IsChild() && t.Account != nil && t.Account.ID == p.AccountID

	case ContributeGoal:
		return p.IsChild() && t.Goal != nil && t.Goal.OwnerID == p.AccountID

	case ListChildren:
		return p.IsParent()

	case GrantAllowance:
		return p.IsParent() && t.Account != nil && t.Account.ManagedBy(p.AccountID)

	case RecordSpend:
		if t.Account == nil || t.Account.Role != model.RoleChild {
			return false
		}
		return t.Account.ID == p.AccountID || (p.IsParent() && t.Account.ManagedBy(p.AccountID))
	}
	return false
}

func selfOrParent(p Principal, acct *model.Account) bool {
	if acct == nil {
		return false
	}
	if acct.ID == p.AccountID {
		return true
	}
	return p.IsParent() && acct.ManagedBy(p.AccountID)
}

// ActionForChoreStatus maps a requested chore status to the action that
// guards it. Statuses with no inbound edge report false.
func ActionForChoreStatus(to model.ChoreStatus) (Action, bool) {
	switch to {
	case model.ChoreStatusCompleted:
		return CompleteChore, true
	case model.ChoreStatusApproved, model.ChoreStatusDeclined:
		return ReviewChore, true
	}
	return 0, false
}
