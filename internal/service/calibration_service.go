package service

import (
	"math"

	"github.com/tmarlier/Castellan/config"
)

// CalibrationResult is what the engine proposes for a puzzle. Delta is the
// applied change (new minus old, after clamping), so it is zero both when the
// sample gate holds and when the raw adjustment cancels out.
type CalibrationResult struct {
	OldRating int
	NewRating int
	Delta     int
	Gated     bool // true when the sample-size gate kept the rating in place
}

// CalibrationEngine computes a new difficulty rating from aggregated attempt
// metrics. It is purely functional: no I/O, no side effects. Callers persist
// the result.
//
// The model is a weighted heuristic, not a trained regressor. Low success
// rate means the puzzle is harder than labeled, so the rating goes up; high
// success rate pulls it down. Failure evidence moves the rating more
// aggressively than success evidence, many tries per session amplify the
// current direction, and heavy hint reliance dampens it (floored so the
// multiplier never flips the sign).
type CalibrationEngine interface {
	Calibrate(currentRating int, metrics CalibrationMetrics) CalibrationResult
}

type calibrationEngine struct {
	cfg config.Calibration
}

func NewCalibrationEngine(cfg *config.Config) CalibrationEngine {
	return &calibrationEngine{cfg: cfg.Calibration}
}

func (e *calibrationEngine) Calibrate(currentRating int, metrics CalibrationMetrics) CalibrationResult {
	result := CalibrationResult{OldRating: currentRating, NewRating: currentRating}

	// Insufficient data must never move the rating.
	if metrics.SampleCount < e.cfg.MinSampleSize {
		result.Gated = true
		return result
	}

	delta := e.cfg.EasyBaseDelta
	if metrics.SuccessRate < e.cfg.LowSuccessRate {
		delta = e.cfg.HardBaseDelta
	}

	// Many tries per session amplify the adjustment in its current direction.
	delta *= 1 + metrics.AverageAttempts/e.cfg.AttemptDivisor

	// Hint reliance dampens the adjustment; the multiplier floors at zero so
	// it can temper the movement but never reverse it.
	damp := 1 - metrics.AverageHints/e.cfg.HintDivisor
	if damp < 0 {
		damp = 0
	}
	delta *= damp

	newRating := currentRating + int(math.Floor(delta))
	if newRating < e.cfg.MinRating {
		newRating = e.cfg.MinRating
	}
	if newRating > e.cfg.MaxRating {
		newRating = e.cfg.MaxRating
	}

	result.NewRating = newRating
	result.Delta = newRating - currentRating
	return result
}
