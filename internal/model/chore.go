package model

import "time"

type ChoreStatus string

const (
	ChoreStatusPending   ChoreStatus = "pending"
	ChoreStatusCompleted ChoreStatus = "completed"
	ChoreStatusApproved  ChoreStatus = "approved"
	ChoreStatusDeclined  ChoreStatus = "declined"
)

func (s ChoreStatus) Valid() bool {
	switch s {
	case ChoreStatusPending, ChoreStatusCompleted, ChoreStatusApproved, ChoreStatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s ChoreStatus) Terminal() bool {
	return s == ChoreStatusApproved || s == ChoreStatusDeclined
}

type Chore struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	RewardValue int64       `json:"reward_value"`
	AssigneeID  int64       `json:"assignee_id"`
	CreatorID   int64       `json:"creator_id"`
	Status      ChoreStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
