package model

import "time"

type ModuleProgress struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"user_id"`
	ModuleID    string     `json:"module_id"`
	IsCompleted bool       `json:"is_completed"`
	Score       *int       `json:"score"`
	CompletedAt *time.Time `json:"completed_at"`
}

type Mood string

const (
	MoodAngry   Mood = "angry"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
	MoodHappy   Mood = "happy"
	MoodExcited Mood = "excited"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodAngry, MoodSad, MoodNeutral, MoodHappy, MoodExcited:
		return true
	}
	return false
}

type DailyMood struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"user_id"`
	Mood      Mood      `json:"mood"`
	Day       string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
