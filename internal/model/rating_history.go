package model

import (
	"time"
)

// PuzzleRatingHistory is the append-only audit ledger of calibration events.
// Records are never edited or deleted.
type PuzzleRatingHistory struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PuzzleID           uint      `gorm:"not null;index" json:"puzzle_id"`
	OldRating          int       `gorm:"not null" json:"old_rating"`
	NewRating          int       `gorm:"not null" json:"new_rating"`
	RatingChange       int       `gorm:"not null" json:"rating_change"`
	TotalAttempts      int       `gorm:"not null" json:"total_attempts"`
	SuccessRate        float64   `gorm:"not null" json:"success_rate"`
	AverageTimeToSolve int       `gorm:"not null" json:"average_time_to_solve"`
	CalibratedAt       time.Time `gorm:"autoCreateTime" json:"calibrated_at"`

	Puzzle Puzzle `gorm:"foreignKey:PuzzleID;references:ID" json:"puzzle,omitempty"`
}

func (PuzzleRatingHistory) TableName() string {
	return "puzzle_rating_history"
}
