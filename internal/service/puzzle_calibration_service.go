package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/metrics"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

// PuzzleCalibrationService runs a full recalibration pass: aggregate the
// recent attempt window, ask the engine for a new rating, and persist the
// rating update together with its ledger entry atomically. Used both by the
// every-Nth-attempt trigger and by the manual admin endpoint (which bypasses
// the trigger interval but not the minimum-sample gate).
type PuzzleCalibrationService interface {
	RecalibratePuzzle(puzzleID uint) (*dto.CalibrationResultDTO, error)
}

type puzzleCalibrationService struct {
	puzzleRepo repository.PuzzleRepository
	metricsSvc MetricsService
	engine     CalibrationEngine
	cfg        config.Calibration
}

func NewPuzzleCalibrationService(
	puzzleRepo repository.PuzzleRepository,
	metricsSvc MetricsService,
	engine CalibrationEngine,
	cfg *config.Config,
) PuzzleCalibrationService {
	return &puzzleCalibrationService{
		puzzleRepo: puzzleRepo,
		metricsSvc: metricsSvc,
		engine:     engine,
		cfg:        cfg.Calibration,
	}
}

func (s *puzzleCalibrationService) RecalibratePuzzle(puzzleID uint) (*dto.CalibrationResultDTO, error) {
	puzzle, err := s.puzzleRepo.FindByID(puzzleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPuzzleNotFound, puzzleID)
		}
		return nil, fmt.Errorf("fetching puzzle %d for calibration: %w", puzzleID, err)
	}

	m, err := s.metricsSvc.Aggregate(puzzleID, s.cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	result := s.engine.Calibrate(puzzle.Rating, m)
	resp := &dto.CalibrationResultDTO{
		PuzzleID:    puzzleID,
		OldRating:   result.OldRating,
		NewRating:   result.NewRating,
		Delta:       result.Delta,
		SampleCount: m.SampleCount,
	}

	if result.Gated {
		// Defined no-op, not an error: nothing persisted, rating untouched.
		log.Info().Uint("puzzleID", puzzleID).Int("sampleCount", m.SampleCount).
			Msg("Calibration gated: not enough attempts in window")
		metrics.CalibrationsRun.WithLabelValues("gated").Inc()
		return resp, nil
	}

	var record *model.PuzzleRatingHistory
	if result.Delta != 0 {
		record = &model.PuzzleRatingHistory{
			PuzzleID:           puzzleID,
			OldRating:          result.OldRating,
			NewRating:          result.NewRating,
			RatingChange:       result.Delta,
			TotalAttempts:      m.SampleCount,
			SuccessRate:        clampFloat(m.SuccessRate, 0, 100),
			AverageTimeToSolve: int(math.Max(0, math.Round(m.AverageTimeToSolve))),
		}
	}

	difficulty := DifficultyForRating(result.NewRating)
	if err := s.puzzleRepo.ApplyCalibration(puzzleID, result.OldRating, result.NewRating, difficulty, PointValueForDifficulty(difficulty), record); err != nil {
		if errors.Is(err, repository.ErrStaleRating) {
			// A concurrent calibration moved the rating first. Skip rather
			// than overwrite; the ledger chain stays unbroken and the next
			// trigger crossing recomputes from the fresh baseline.
			log.Warn().Uint("puzzleID", puzzleID).Int("computedFrom", result.OldRating).
				Msg("Skipping calibration: rating changed since it was computed")
			metrics.CalibrationsRun.WithLabelValues("stale").Inc()
			return resp, nil
		}
		log.Error().Err(err).Uint("puzzleID", puzzleID).Msg("Failed to persist calibration")
		return nil, fmt.Errorf("persisting calibration for puzzle %d: %w", puzzleID, err)
	}

	resp.Applied = result.Delta != 0
	if resp.Applied {
		metrics.CalibrationsRun.WithLabelValues("applied").Inc()
		metrics.RatingDelta.Observe(float64(result.Delta))
	} else {
		metrics.CalibrationsRun.WithLabelValues("noop").Inc()
	}

	log.Info().Uint("puzzleID", puzzleID).Int("oldRating", result.OldRating).
		Int("newRating", result.NewRating).Int("delta", result.Delta).
		Float64("successRate", m.SuccessRate).Msg("Puzzle recalibrated")
	return resp, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
