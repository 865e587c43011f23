package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/model"
)

type puzzleFixture struct {
	svc         PuzzleService
	puzzleRepo  *fakePuzzleRepo
	historyRepo *fakeHistoryRepo
	creatorID   uint
}

func setupPuzzleFixture(t *testing.T) *puzzleFixture {
	t.Helper()
	userRepo := newFakeUserRepo()
	puzzleRepo := newFakePuzzleRepo()
	historyRepo := newFakeHistoryRepo()

	creator := &model.User{Username: "composer", Rating: 1800}
	require.NoError(t, userRepo.Create(creator))

	return &puzzleFixture{
		svc:         NewPuzzleService(puzzleRepo, userRepo, historyRepo, NewInitialRatingService()),
		puzzleRepo:  puzzleRepo,
		historyRepo: historyRepo,
		creatorID:   creator.ID,
	}
}

func TestCreatePuzzleWithExplicitRating(t *testing.T) {
	f := setupPuzzleFixture(t)

	resp, err := f.svc.CreatePuzzle(dto.PuzzleCreateDTO{
		CreatorID:      f.creatorID,
		Title:          "Greek gift",
		FEN:            "r1bq1rk1/ppp2ppp/8/8/8/8/PPP2PPP/R1BQ1RK1 w - - 0 1",
		Solution:       "Bxh7+ Kxh7 Ng5+",
		TacticalThemes: []string{"sacrifice", "king-attack"},
		Rating:         1800,
		HintsAvailable: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1800, resp.Rating)
	assert.Equal(t, model.DifficultyIntermediate, resp.Difficulty)
	assert.Equal(t, 20, resp.PointValue)
	assert.Equal(t, []string{"sacrifice", "king-attack"}, resp.TacticalThemes)
	assert.False(t, resp.Verified, "new puzzles start unverified")
}

func TestCreatePuzzleEstimatesMissingRating(t *testing.T) {
	f := setupPuzzleFixture(t)

	resp, err := f.svc.CreatePuzzle(dto.PuzzleCreateDTO{
		CreatorID: f.creatorID,
		Title:     "Simple mate",
		FEN:       "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
		Solution:  "Rd8#",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, resp.Rating, 500)
	assert.LessOrEqual(t, resp.Rating, 3000)
	assert.Equal(t, DifficultyForRating(resp.Rating), resp.Difficulty)
	assert.Equal(t, PointValueForDifficulty(resp.Difficulty), resp.PointValue)
}

func TestCreatePuzzleRejectsInvalidInput(t *testing.T) {
	f := setupPuzzleFixture(t)

	_, err := f.svc.CreatePuzzle(dto.PuzzleCreateDTO{CreatorID: 999, Title: "x", FEN: "fen", Solution: "e4"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.CreatePuzzle(dto.PuzzleCreateDTO{CreatorID: f.creatorID, Title: "x", FEN: "   ", Solution: "e4"})
	assert.ErrorIs(t, err, ErrInvalidPuzzle)

	_, err = f.svc.CreatePuzzle(dto.PuzzleCreateDTO{CreatorID: f.creatorID, Title: "x", FEN: "fen", Solution: ""})
	assert.ErrorIs(t, err, ErrInvalidPuzzle)
}

func TestListPuzzlesFiltersAndPaginates(t *testing.T) {
	f := setupPuzzleFixture(t)
	for i := 0; i < 5; i++ {
		p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1000, Verified: i < 2}
		require.NoError(t, f.puzzleRepo.Create(p))
	}

	verified := true
	out, err := f.svc.ListPuzzles(&verified, 1, 10)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = f.svc.ListPuzzles(nil, 2, 3)
	require.NoError(t, err)
	assert.Len(t, out, 2, "second page of five at page size three")
}

func TestGetMetricsComputesSuccessRate(t *testing.T) {
	f := setupPuzzleFixture(t)
	p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1300, TotalAttempts: 8, SuccessfulAttempts: 6, AverageTimeToSolve: 42}
	require.NoError(t, f.puzzleRepo.Create(p))

	m, err := f.svc.GetMetrics(p.ID)
	require.NoError(t, err)

	assert.Equal(t, 8, m.TotalAttempts)
	assert.Equal(t, 6, m.SuccessfulAttempts)
	assert.InDelta(t, 75, m.SuccessRate, 0.001)
	assert.Equal(t, 42, m.AverageTimeToSolve)
}

func TestGetMetricsZeroAttempts(t *testing.T) {
	f := setupPuzzleFixture(t)
	p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1300}
	require.NoError(t, f.puzzleRepo.Create(p))

	m, err := f.svc.GetMetrics(p.ID)
	require.NoError(t, err)
	assert.Zero(t, m.SuccessRate)
}

func TestGetRatingHistoryNewestFirst(t *testing.T) {
	f := setupPuzzleFixture(t)
	p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1300}
	require.NoError(t, f.puzzleRepo.Create(p))

	require.NoError(t, f.historyRepo.Create(&model.PuzzleRatingHistory{PuzzleID: p.ID, OldRating: 1200, NewRating: 1400, RatingChange: 200}))
	require.NoError(t, f.historyRepo.Create(&model.PuzzleRatingHistory{PuzzleID: p.ID, OldRating: 1400, NewRating: 1300, RatingChange: -100}))

	history, err := f.svc.GetRatingHistory(p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -100, history[0].RatingChange)
	assert.Equal(t, 200, history[1].RatingChange)
}

func TestVerifyPuzzle(t *testing.T) {
	f := setupPuzzleFixture(t)
	p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1300}
	require.NoError(t, f.puzzleRepo.Create(p))

	resp, err := f.svc.VerifyPuzzle(p.ID)
	require.NoError(t, err)
	assert.True(t, resp.Verified)

	_, err = f.svc.VerifyPuzzle(999)
	assert.ErrorIs(t, err, ErrPuzzleNotFound)
}

func TestVerifyPuzzlePreservesRollups(t *testing.T) {
	f := setupPuzzleFixture(t)
	p := &model.Puzzle{Title: "p", FEN: "fen", Solution: "e4", Rating: 1640, TotalAttempts: 5, SuccessfulAttempts: 2, AverageTimeToSolve: 33}
	require.NoError(t, f.puzzleRepo.Create(p))

	resp, err := f.svc.VerifyPuzzle(p.ID)
	require.NoError(t, err)
	assert.True(t, resp.Verified)

	// Verification flips one flag; counters and rating written by concurrent
	// attempts must never be overwritten from a stale read.
	stored, _ := f.puzzleRepo.FindByID(p.ID)
	assert.Equal(t, 5, stored.TotalAttempts)
	assert.Equal(t, 2, stored.SuccessfulAttempts)
	assert.Equal(t, 33, stored.AverageTimeToSolve)
	assert.Equal(t, 1640, stored.Rating)
}

func TestDifficultyBands(t *testing.T) {
	assert.Equal(t, model.DifficultyBeginner, DifficultyForRating(500))
	assert.Equal(t, model.DifficultyBeginner, DifficultyForRating(1499))
	assert.Equal(t, model.DifficultyIntermediate, DifficultyForRating(1500))
	assert.Equal(t, model.DifficultyIntermediate, DifficultyForRating(1999))
	assert.Equal(t, model.DifficultyAdvanced, DifficultyForRating(2000))
	assert.Equal(t, model.DifficultyAdvanced, DifficultyForRating(3000))

	assert.Equal(t, 10, PointValueForDifficulty(model.DifficultyBeginner))
	assert.Equal(t, 20, PointValueForDifficulty(model.DifficultyIntermediate))
	assert.Equal(t, 30, PointValueForDifficulty(model.DifficultyAdvanced))
}
