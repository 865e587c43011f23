package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

// CalibrationMetrics summarizes a sliding window of recent attempts on one
// puzzle. Time and differential averages are computed over successful attempts
// only; hint and attempt averages cover the whole sample.
type CalibrationMetrics struct {
	SampleCount               int
	SuccessRate               float64 // 0..100
	AverageTimeToSolve        float64 // seconds, successful attempts only
	AverageHints              float64
	AverageAttempts           float64
	AverageRatingDifferential float64 // solver rating minus puzzle rating, successes only
	HighRatedSuccessCount     int     // successes with differential above the high threshold
	VeryHighRatedSuccessCount int
}

// MetricsService derives CalibrationMetrics from the attempt log. It reads
// the most recent windowSize attempts rather than the full history so that
// calibration reflects the current solver population.
type MetricsService interface {
	Aggregate(puzzleID uint, windowSize int) (CalibrationMetrics, error)
}

type metricsService struct {
	attemptRepo repository.AttemptRepository
	puzzleRepo  repository.PuzzleRepository
	cfg         config.Calibration
}

func NewMetricsService(attemptRepo repository.AttemptRepository, puzzleRepo repository.PuzzleRepository, cfg *config.Config) MetricsService {
	return &metricsService{attemptRepo: attemptRepo, puzzleRepo: puzzleRepo, cfg: cfg.Calibration}
}

func (s *metricsService) Aggregate(puzzleID uint, windowSize int) (CalibrationMetrics, error) {
	if windowSize <= 0 {
		windowSize = s.cfg.WindowSize
	}

	puzzle, err := s.puzzleRepo.FindByID(puzzleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CalibrationMetrics{}, fmt.Errorf("%w: id %d", ErrPuzzleNotFound, puzzleID)
		}
		return CalibrationMetrics{}, fmt.Errorf("fetching puzzle %d for aggregation: %w", puzzleID, err)
	}

	attempts, err := s.attemptRepo.FindRecentByPuzzle(puzzleID, windowSize)
	if err != nil {
		return CalibrationMetrics{}, fmt.Errorf("fetching attempts for puzzle %d: %w", puzzleID, err)
	}
	if len(attempts) == 0 {
		return CalibrationMetrics{}, nil
	}

	var (
		successes     int
		timeSum       int
		hintsSum      int
		attemptsSum   int
		diffSum       int
		highRated     int
		veryHighRated int
	)
	for _, a := range attempts {
		hintsSum += a.HintsUsed
		attemptsSum += a.AttemptsInSession
		if !a.Completed {
			continue
		}
		successes++
		timeSum += a.TimeSpentSeconds
		diff := a.SolverRating - puzzle.Rating
		diffSum += diff
		if diff > s.cfg.HighDiffThreshold {
			highRated++
		}
		if diff > s.cfg.VeryHighDiffThresh {
			veryHighRated++
		}
	}

	metrics := CalibrationMetrics{
		SampleCount:               len(attempts),
		SuccessRate:               float64(successes) / float64(len(attempts)) * 100,
		AverageHints:              float64(hintsSum) / float64(len(attempts)),
		AverageAttempts:           float64(attemptsSum) / float64(len(attempts)),
		HighRatedSuccessCount:     highRated,
		VeryHighRatedSuccessCount: veryHighRated,
	}
	if successes > 0 {
		metrics.AverageTimeToSolve = float64(timeSum) / float64(successes)
		metrics.AverageRatingDifferential = float64(diffSum) / float64(successes)
	}

	log.Debug().Uint("puzzleID", puzzleID).Int("sampleCount", metrics.SampleCount).
		Float64("successRate", metrics.SuccessRate).Msg("Aggregated calibration metrics")
	return metrics, nil
}
