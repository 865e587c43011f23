package model

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty buckets derived from rating bands.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Puzzle is the mutable entity whose Rating the calibration engine adjusts.
// TotalAttempts, SuccessfulAttempts and AverageTimeToSolve are denormalized
// rollups maintained atomically with each attempt insert; invariant:
// SuccessfulAttempts <= TotalAttempts.
type Puzzle struct {
	ID             uint     `gorm:"primarykey" json:"id"`
	CreatorID      uint     `json:"creator_id" gorm:"not null;index"`
	Title          string   `json:"title" gorm:"not null"`
	Description    string   `json:"description"`
	FEN            string   `json:"fen" gorm:"column:fen;type:text;not null"`
	Solution       string   `json:"solution" gorm:"type:text;not null"` // space-separated move sequence
	TacticalThemes string   `json:"tactical_themes"`                    // comma-separated theme tags
	Rating         int      `json:"rating" gorm:"not null"`
	Difficulty     string   `json:"difficulty" gorm:"default:'beginner'"`
	Verified       bool     `json:"verified" gorm:"default:false"`
	HintsAvailable int      `json:"hints_available" gorm:"default:0"`
	PointValue     int      `json:"point_value" gorm:"default:10"`
	EngineEval     *float64 `json:"engine_eval,omitempty"` // pawn-unit evaluation from the external engine, if analysed

	TotalAttempts      int        `json:"total_attempts" gorm:"not null;default:0"`
	SuccessfulAttempts int        `json:"successful_attempts" gorm:"not null;default:0"`
	AverageTimeToSolve int        `json:"average_time_to_solve" gorm:"not null;default:0"`
	LastCalibrationAt  *time.Time `json:"last_calibration_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
