package model

import "time"

type GoalStatus string

const (
	GoalStatusActive  GoalStatus = "active"
	GoalStatusReached GoalStatus = "reached"
)

type Goal struct {
	ID            int64      `json:"id"`
	OwnerID       int64      `json:"user_id"`
	Title         string     `json:"title"`
	TargetAmount  int64      `json:"target_amount"`
	CurrentAmount int64      `json:"current_amount"`
	Status        GoalStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Remaining is how much is still missing to reach the target, never negative.
func (g *Goal) Remaining() int64 {
	if g.CurrentAmount >= g.TargetAmount {
		return 0
	}
	return g.TargetAmount - g.CurrentAmount
}
