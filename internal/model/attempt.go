package model

import (
	"time"
)

// PuzzleAttempt is one solver's try at a puzzle. Rows are append-only: once
// inserted they are never mutated or deleted, so the calibration history can
// always be re-derived deterministically. SolverRating is a snapshot of the
// user's rating at the moment of the attempt and is never updated afterwards.
type PuzzleAttempt struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	UserID            uint      `json:"user_id" gorm:"not null;index"`
	PuzzleID          uint      `json:"puzzle_id" gorm:"not null;index"`
	Puzzle            Puzzle    `json:"puzzle,omitempty" gorm:"foreignKey:PuzzleID"`
	Completed         bool      `json:"completed" gorm:"not null"`
	TimeSpentSeconds  int       `json:"time_spent_seconds" gorm:"not null"`
	HintsUsed         int       `json:"hints_used" gorm:"not null;default:0"`
	AttemptsInSession int       `json:"attempts_in_session" gorm:"not null;default:1"`
	SolverRating      int       `json:"solver_rating" gorm:"not null"`
	OccurredAt        time.Time `json:"occurred_at" gorm:"autoCreateTime;index"`
}

func (PuzzleAttempt) TableName() string {
	return "puzzle_attempts"
}
