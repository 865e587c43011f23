package dto

// UserCreateDTO registers a new solver.
type UserCreateDTO struct {
	Username string `json:"username" binding:"required"`
	IsGuest  bool   `json:"is_guest"`
}

// PuzzleCreateDTO creates a puzzle. Rating is optional: when omitted (zero)
// the initial rating heuristic estimates one from the position and solution.
type PuzzleCreateDTO struct {
	CreatorID      uint     `json:"creator_id" binding:"required"`
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	FEN            string   `json:"fen" binding:"required"`
	Solution       string   `json:"solution" binding:"required"`
	TacticalThemes []string `json:"tactical_themes"`
	Rating         int      `json:"rating" binding:"omitempty,min=500,max=3000"`
	HintsAvailable int      `json:"hints_available" binding:"min=0"`
	EngineEval     *float64 `json:"engine_eval"`
}

// AttemptSubmitDTO records one solving session outcome for a puzzle.
// The solver's ID comes from the session layer; it is carried in the body
// here the same way the rest of the API passes user identity.
type AttemptSubmitDTO struct {
	UserID            uint `json:"user_id" binding:"required"`
	Completed         bool `json:"completed"`
	TimeSpentSeconds  int  `json:"time_spent_seconds" binding:"min=0"`
	HintsUsed         int  `json:"hints_used" binding:"min=0"`
	AttemptsInSession int  `json:"attempts_in_session" binding:"required,min=1"`
}
