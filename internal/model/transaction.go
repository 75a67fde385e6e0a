package model

import "time"

type TransactionKind string

const (
	KindEarned           TransactionKind = "earned"
	KindGoalContribution TransactionKind = "goal_contribution"
	KindAllowance        TransactionKind = "allowance"
	KindSpent            TransactionKind = "spent"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindEarned, KindGoalContribution, KindAllowance, KindSpent:
		return true
	}
	return false
}

// Transaction is an immutable ledger fact. Amount is signed minor units:
// positive for credits, negative for debits.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"user_id"`
	Amount    int64           `json:"amount"`
	Kind      TransactionKind `json:"type"`
	Reason    string          `json:"description"`
	CreatedAt time.Time       `json:"created_at"`
}
