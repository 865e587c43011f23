package dto

import "time"

// ErrorResponse is the uniform error body returned by all endpoints.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type UserResponseDTO struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Rating        int       `json:"rating"`
	PuzzlesSolved int       `json:"puzzles_solved"`
	IsGuest       bool      `json:"is_guest"`
	CreatedAt     time.Time `json:"created_at"`
}

type PuzzleResponseDTO struct {
	ID                uint       `json:"id"`
	CreatorID         uint       `json:"creator_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	FEN               string     `json:"fen"`
	Solution          string     `json:"solution"`
	TacticalThemes    []string   `json:"tactical_themes,omitempty"`
	Rating            int        `json:"rating"`
	Difficulty        string     `json:"difficulty"`
	Verified          bool       `json:"verified"`
	HintsAvailable    int        `json:"hints_available"`
	PointValue        int        `json:"point_value"`
	CreatedAt         time.Time  `json:"created_at"`
	LastCalibrationAt *time.Time `json:"last_calibration_at,omitempty"`
}

type AttemptResponseDTO struct {
	ID                uint      `json:"id"`
	UserID            uint      `json:"user_id"`
	PuzzleID          uint      `json:"puzzle_id"`
	Completed         bool      `json:"completed"`
	TimeSpentSeconds  int       `json:"time_spent_seconds"`
	HintsUsed         int       `json:"hints_used"`
	AttemptsInSession int       `json:"attempts_in_session"`
	SolverRating      int       `json:"solver_rating"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// PuzzleMetricsDTO is the on-demand rollup view; SuccessRate is computed from
// the counters at read time, not stored.
type PuzzleMetricsDTO struct {
	PuzzleID           uint       `json:"puzzle_id"`
	Rating             int        `json:"rating"`
	TotalAttempts      int        `json:"total_attempts"`
	SuccessfulAttempts int        `json:"successful_attempts"`
	SuccessRate        float64    `json:"success_rate"`
	AverageTimeToSolve int        `json:"average_time_to_solve"`
	LastCalibrationAt  *time.Time `json:"last_calibration_at,omitempty"`
}

type RatingHistoryDTO struct {
	OldRating          int       `json:"old_rating"`
	NewRating          int       `json:"new_rating"`
	RatingChange       int       `json:"rating_change"`
	TotalAttempts      int       `json:"total_attempts"`
	SuccessRate        float64   `json:"success_rate"`
	AverageTimeToSolve int       `json:"average_time_to_solve"`
	CalibratedAt       time.Time `json:"calibrated_at"`
}

type RecommendationDTO struct {
	Puzzle PuzzleResponseDTO `json:"puzzle"`
	Score  float64           `json:"score"`
	Reason string            `json:"reason,omitempty"`
}
