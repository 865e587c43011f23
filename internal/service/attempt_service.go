package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/metrics"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

// AttemptService records solver attempts and drives the scoring trigger.
type AttemptService interface {
	RecordAttempt(puzzleID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResponseDTO, error)
	GetUserAttempts(userID uint) ([]dto.AttemptResponseDTO, error)
}

type attemptService struct {
	attemptRepo    repository.AttemptRepository
	puzzleRepo     repository.PuzzleRepository
	userRepo       repository.UserRepository
	calibrationSvc PuzzleCalibrationService
	cfg            config.Calibration
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	puzzleRepo repository.PuzzleRepository,
	userRepo repository.UserRepository,
	calibrationSvc PuzzleCalibrationService,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		attemptRepo:    attemptRepo,
		puzzleRepo:     puzzleRepo,
		userRepo:       userRepo,
		calibrationSvc: calibrationSvc,
		cfg:            cfg.Calibration,
	}
}

// RecordAttempt validates the submission, appends the attempt row and updates
// the puzzle rollups in one transaction, then checks the trigger policy: every
// TriggerInterval-th attempt fires a full recalibration in an immediately
// following transaction. A calibration failure is logged but never fails the
// attempt that triggered it; the counters are already durable and the next
// interval crossing will fire again.
func (s *attemptService) RecordAttempt(puzzleID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResponseDTO, error) {
	puzzle, err := s.puzzleRepo.FindByID(puzzleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPuzzleNotFound, puzzleID)
		}
		return nil, fmt.Errorf("fetching puzzle %d: %w", puzzleID, err)
	}

	user, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, req.UserID)
		}
		return nil, fmt.Errorf("fetching user %d: %w", req.UserID, err)
	}

	if req.TimeSpentSeconds < 0 {
		return nil, fmt.Errorf("%w: time spent must be non-negative", ErrInvalidAttempt)
	}
	if req.AttemptsInSession < 1 {
		return nil, fmt.Errorf("%w: attempts in session must be at least 1", ErrInvalidAttempt)
	}
	if req.HintsUsed < 0 || req.HintsUsed > puzzle.HintsAvailable {
		return nil, fmt.Errorf("%w: hints used %d exceeds allowance %d", ErrInvalidAttempt, req.HintsUsed, puzzle.HintsAvailable)
	}

	attempt := model.PuzzleAttempt{
		UserID:            req.UserID,
		PuzzleID:          puzzleID,
		Completed:         req.Completed,
		TimeSpentSeconds:  req.TimeSpentSeconds,
		HintsUsed:         req.HintsUsed,
		AttemptsInSession: req.AttemptsInSession,
		SolverRating:      user.Rating, // snapshot, never updated retroactively
		OccurredAt:        time.Now(),
	}

	updatedPuzzle, err := s.attemptRepo.CreateWithRollup(&attempt)
	if err != nil {
		log.Error().Err(err).Uint("puzzleID", puzzleID).Uint("userID", req.UserID).Msg("Failed to record attempt")
		return nil, fmt.Errorf("recording attempt: %w", err)
	}
	metrics.AttemptsRecorded.WithLabelValues(strconv.FormatBool(req.Completed)).Inc()

	if s.cfg.TriggerInterval > 0 && updatedPuzzle.TotalAttempts%s.cfg.TriggerInterval == 0 {
		log.Info().Uint("puzzleID", puzzleID).Int("totalAttempts", updatedPuzzle.TotalAttempts).
			Msg("Attempt count crossed trigger threshold, recalibrating")
		if _, err := s.calibrationSvc.RecalibratePuzzle(puzzleID); err != nil {
			log.Error().Err(err).Uint("puzzleID", puzzleID).Msg("Triggered recalibration failed")
		}
	}

	var resp dto.AttemptResponseDTO
	if err := copier.Copy(&resp, &attempt); err != nil {
		return nil, fmt.Errorf("preparing attempt response: %w", err)
	}
	return &resp, nil
}

func (s *attemptService) GetUserAttempts(userID uint) ([]dto.AttemptResponseDTO, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("fetching user %d: %w", userID, err)
	}

	attempts, err := s.attemptRepo.FindByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("fetching attempts for user %d: %w", userID, err)
	}

	dtos := make([]dto.AttemptResponseDTO, 0, len(attempts))
	for _, a := range attempts {
		var d dto.AttemptResponseDTO
		if err := copier.Copy(&d, &a); err != nil {
			log.Error().Err(err).Uint("attemptID", a.ID).Msg("Failed to copy attempt to DTO")
			continue
		}
		dtos = append(dtos, d)
	}
	return dtos, nil
}
