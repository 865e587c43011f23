package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/model"
)

type attemptFixture struct {
	svc         AttemptService
	userRepo    *fakeUserRepo
	puzzleRepo  *fakePuzzleRepo
	attemptRepo *fakeAttemptRepo
	userID      uint
	puzzleID    uint
}

func setupAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	cfg := testConfig()
	userRepo := newFakeUserRepo()
	puzzleRepo := newFakePuzzleRepo()
	attemptRepo := newFakeAttemptRepo(puzzleRepo)

	user := &model.User{Username: "magnus", Rating: 1450}
	require.NoError(t, userRepo.Create(user))
	puzzle := &model.Puzzle{Title: "Smothered mate", FEN: "fen", Solution: "Nf7#", Rating: 1200, HintsAvailable: 3}
	require.NoError(t, puzzleRepo.Create(puzzle))

	calibrationSvc := NewPuzzleCalibrationService(
		puzzleRepo,
		NewMetricsService(attemptRepo, puzzleRepo, cfg),
		NewCalibrationEngine(cfg),
		cfg,
	)
	return &attemptFixture{
		svc:         NewAttemptService(attemptRepo, puzzleRepo, userRepo, calibrationSvc, cfg),
		userRepo:    userRepo,
		puzzleRepo:  puzzleRepo,
		attemptRepo: attemptRepo,
		userID:      user.ID,
		puzzleID:    puzzle.ID,
	}
}

func TestRecordAttemptUpdatesRollups(t *testing.T) {
	f := setupAttemptFixture(t)

	submissions := []dto.AttemptSubmitDTO{
		{UserID: f.userID, Completed: true, TimeSpentSeconds: 40, AttemptsInSession: 1},
		{UserID: f.userID, Completed: false, TimeSpentSeconds: 120, AttemptsInSession: 2},
		{UserID: f.userID, Completed: true, TimeSpentSeconds: 20, AttemptsInSession: 1},
	}
	for _, s := range submissions {
		_, err := f.svc.RecordAttempt(f.puzzleID, s)
		require.NoError(t, err)
	}

	puzzle, _ := f.puzzleRepo.FindByID(f.puzzleID)
	assert.Equal(t, 3, puzzle.TotalAttempts)
	assert.Equal(t, 2, puzzle.SuccessfulAttempts)
	// Mean over completed attempts only: (40+20)/2.
	assert.Equal(t, 30, puzzle.AverageTimeToSolve)
	assert.LessOrEqual(t, puzzle.SuccessfulAttempts, puzzle.TotalAttempts)
}

func TestRecordAttemptSnapshotsSolverRating(t *testing.T) {
	f := setupAttemptFixture(t)

	resp, err := f.svc.RecordAttempt(f.puzzleID, dto.AttemptSubmitDTO{
		UserID: f.userID, Completed: true, TimeSpentSeconds: 15, AttemptsInSession: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1450, resp.SolverRating)
	require.Len(t, f.attemptRepo.attempts, 1)
	assert.Equal(t, 1450, f.attemptRepo.attempts[0].SolverRating)
}

func TestRecordAttemptValidation(t *testing.T) {
	f := setupAttemptFixture(t)

	tests := []struct {
		name     string
		puzzleID uint
		req      dto.AttemptSubmitDTO
		wantErr  error
	}{
		{
			name:     "unknown puzzle",
			puzzleID: 999,
			req:      dto.AttemptSubmitDTO{UserID: f.userID, AttemptsInSession: 1},
			wantErr:  ErrPuzzleNotFound,
		},
		{
			name:     "unknown user",
			puzzleID: f.puzzleID,
			req:      dto.AttemptSubmitDTO{UserID: 999, AttemptsInSession: 1},
			wantErr:  ErrUserNotFound,
		},
		{
			name:     "negative time",
			puzzleID: f.puzzleID,
			req:      dto.AttemptSubmitDTO{UserID: f.userID, TimeSpentSeconds: -1, AttemptsInSession: 1},
			wantErr:  ErrInvalidAttempt,
		},
		{
			name:     "zero tries in session",
			puzzleID: f.puzzleID,
			req:      dto.AttemptSubmitDTO{UserID: f.userID, AttemptsInSession: 0},
			wantErr:  ErrInvalidAttempt,
		},
		{
			name:     "hints beyond allowance",
			puzzleID: f.puzzleID,
			req:      dto.AttemptSubmitDTO{UserID: f.userID, HintsUsed: 4, AttemptsInSession: 1},
			wantErr:  ErrInvalidAttempt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordAttempt(tt.puzzleID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.attemptRepo.attempts, "rejected submissions must not persist")
}

func TestRecordAttemptTriggersCalibrationOnInterval(t *testing.T) {
	f := setupAttemptFixture(t)

	fail := dto.AttemptSubmitDTO{UserID: f.userID, Completed: false, TimeSpentSeconds: 60, AttemptsInSession: 1}

	for i := 0; i < 4; i++ {
		_, err := f.svc.RecordAttempt(f.puzzleID, fail)
		require.NoError(t, err)
	}
	puzzle, _ := f.puzzleRepo.FindByID(f.puzzleID)
	assert.Equal(t, 1200, puzzle.Rating, "no calibration before the interval is crossed")
	assert.Empty(t, f.puzzleRepo.ledger)

	_, err := f.svc.RecordAttempt(f.puzzleID, fail)
	require.NoError(t, err)

	puzzle, _ = f.puzzleRepo.FindByID(f.puzzleID)
	assert.Equal(t, 1640, puzzle.Rating, "fifth attempt fires recalibration")
	assert.Equal(t, model.DifficultyIntermediate, puzzle.Difficulty)
	require.Len(t, f.puzzleRepo.ledger, 1)
	assert.Equal(t, 440, f.puzzleRepo.ledger[0].RatingChange)
}

type failingCalibration struct{}

func (failingCalibration) RecalibratePuzzle(uint) (*dto.CalibrationResultDTO, error) {
	return nil, errors.New("calibration backend down")
}

func TestRecordAttemptSurvivesCalibrationFailure(t *testing.T) {
	f := setupAttemptFixture(t)
	f.svc = NewAttemptService(f.attemptRepo, f.puzzleRepo, f.userRepo, failingCalibration{}, testConfig())

	fail := dto.AttemptSubmitDTO{UserID: f.userID, Completed: false, AttemptsInSession: 1}
	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = f.svc.RecordAttempt(f.puzzleID, fail)
	}

	assert.NoError(t, lastErr, "a failed calibration never fails the attempt that triggered it")
	puzzle, _ := f.puzzleRepo.FindByID(f.puzzleID)
	assert.Equal(t, 5, puzzle.TotalAttempts, "the attempt and its rollups stay durable")
}

func TestGetUserAttempts(t *testing.T) {
	f := setupAttemptFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.RecordAttempt(f.puzzleID, dto.AttemptSubmitDTO{
			UserID: f.userID, Completed: i%2 == 0, TimeSpentSeconds: 10 * (i + 1), AttemptsInSession: 1,
		})
		require.NoError(t, err)
	}

	attempts, err := f.svc.GetUserAttempts(f.userID)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)

	_, err = f.svc.GetUserAttempts(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
