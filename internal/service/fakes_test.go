package service

import (
	"math"
	"sort"
	"time"

	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the persistence semantics the
// services rely on (record-not-found errors, rollup arithmetic, ledger
// append ordering) without a database.

func testConfig() *config.Config {
	return &config.Config{
		Calibration: config.Calibration{
			MinSampleSize:      5,
			TriggerInterval:    5,
			WindowSize:         50,
			HardBaseDelta:      400,
			EasyBaseDelta:      -200,
			LowSuccessRate:     40,
			AttemptDivisor:     10,
			HintDivisor:        5,
			MinRating:          500,
			MaxRating:          3000,
			HighDiffThreshold:  200,
			VeryHighDiffThresh: 400,
		},
	}
}

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

type fakePuzzleRepo struct {
	puzzles map[uint]*model.Puzzle
	nextID  uint
	ledger  []model.PuzzleRatingHistory // rows written through ApplyCalibration
}

func newFakePuzzleRepo() *fakePuzzleRepo {
	return &fakePuzzleRepo{puzzles: make(map[uint]*model.Puzzle)}
}

func (r *fakePuzzleRepo) Create(puzzle *model.Puzzle) error {
	r.nextID++
	puzzle.ID = r.nextID
	puzzle.CreatedAt = time.Now()
	stored := *puzzle
	r.puzzles[puzzle.ID] = &stored
	return nil
}

func (r *fakePuzzleRepo) FindByID(id uint) (*model.Puzzle, error) {
	puzzle, ok := r.puzzles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *puzzle
	return &cp, nil
}

func (r *fakePuzzleRepo) FindAll(verified *bool, offset, limit int) ([]model.Puzzle, error) {
	all := r.sorted()
	var out []model.Puzzle
	for _, p := range all {
		if verified != nil && p.Verified != *verified {
			continue
		}
		out = append(out, p)
	}
	if limit > 0 {
		if offset > len(out) {
			offset = len(out)
		}
		out = out[offset:]
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

func (r *fakePuzzleRepo) FindVerifiedExcluding(excludeIDs []uint, limit int) ([]model.Puzzle, error) {
	excluded := make(map[uint]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []model.Puzzle
	for _, p := range r.sorted() {
		if !p.Verified || excluded[p.ID] {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePuzzleRepo) SetVerified(id uint) (*model.Puzzle, error) {
	puzzle, ok := r.puzzles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	puzzle.Verified = true
	cp := *puzzle
	return &cp, nil
}

func (r *fakePuzzleRepo) ApplyCalibration(puzzleID uint, oldRating, newRating int, difficulty string, pointValue int, history *model.PuzzleRatingHistory) error {
	puzzle, ok := r.puzzles[puzzleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if puzzle.Rating != oldRating {
		return repository.ErrStaleRating
	}
	puzzle.Rating = newRating
	puzzle.Difficulty = difficulty
	puzzle.PointValue = pointValue
	now := time.Now()
	puzzle.LastCalibrationAt = &now
	if history != nil {
		history.CalibratedAt = now
		r.ledger = append(r.ledger, *history)
	}
	return nil
}

func (r *fakePuzzleRepo) sorted() []model.Puzzle {
	out := make([]model.Puzzle, 0, len(r.puzzles))
	for _, p := range r.puzzles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeAttemptRepo struct {
	attempts []model.PuzzleAttempt
	puzzles  *fakePuzzleRepo
	nextID   uint
}

func newFakeAttemptRepo(puzzles *fakePuzzleRepo) *fakeAttemptRepo {
	return &fakeAttemptRepo{puzzles: puzzles}
}

func (r *fakeAttemptRepo) CreateWithRollup(attempt *model.PuzzleAttempt) (*model.Puzzle, error) {
	puzzle, ok := r.puzzles.puzzles[attempt.PuzzleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	r.nextID++
	attempt.ID = r.nextID
	r.attempts = append(r.attempts, *attempt)

	puzzle.TotalAttempts++
	if attempt.Completed {
		puzzle.SuccessfulAttempts++
		n := float64(puzzle.SuccessfulAttempts)
		puzzle.AverageTimeToSolve = int(math.Round((float64(puzzle.AverageTimeToSolve)*(n-1) + float64(attempt.TimeSpentSeconds)) / n))
	}
	cp := *puzzle
	return &cp, nil
}

func (r *fakeAttemptRepo) FindRecentByPuzzle(puzzleID uint, limit int) ([]model.PuzzleAttempt, error) {
	var out []model.PuzzleAttempt
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].PuzzleID != puzzleID {
			continue
		}
		out = append(out, r.attempts[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) FindByUser(userID uint) ([]model.PuzzleAttempt, error) {
	var out []model.PuzzleAttempt
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].UserID == userID {
			out = append(out, r.attempts[i])
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	records []model.PuzzleRatingHistory
	nextID  uint
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(record *model.PuzzleRatingHistory) error {
	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeHistoryRepo) FindByPuzzleID(puzzleID uint) ([]model.PuzzleRatingHistory, error) {
	var out []model.PuzzleRatingHistory
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].PuzzleID == puzzleID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}
