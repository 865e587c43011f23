package repository

import (
	"errors"
	"time"

	"github.com/tmarlier/Castellan/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleRating reports that the puzzle's stored rating no longer matches the
// value a calibration was computed from; a concurrent calibration won the race.
var ErrStaleRating = errors.New("puzzle rating changed since calibration was computed")

type PuzzleRepository interface {
	Create(puzzle *model.Puzzle) error
	FindByID(id uint) (*model.Puzzle, error)
	FindAll(verified *bool, offset, limit int) ([]model.Puzzle, error)
	FindVerifiedExcluding(excludeIDs []uint, limit int) ([]model.Puzzle, error)
	SetVerified(id uint) (*model.Puzzle, error)
	// ApplyCalibration persists a new rating together with its ledger entry in
	// one transaction. The puzzle row is locked and the write aborts with
	// ErrStaleRating unless the stored rating still equals oldRating, so two
	// racing calibrations cannot both apply from the same baseline. A nil
	// history record means a no-op calibration: only last_calibration_at is
	// touched and the ledger stays untouched.
	ApplyCalibration(puzzleID uint, oldRating, newRating int, difficulty string, pointValue int, history *model.PuzzleRatingHistory) error
}

type puzzleRepository struct {
	db *gorm.DB
}

func NewPuzzleRepository(db *gorm.DB) PuzzleRepository {
	return &puzzleRepository{db: db}
}

func (r *puzzleRepository) Create(puzzle *model.Puzzle) error {
	return r.db.Create(puzzle).Error
}

func (r *puzzleRepository) FindByID(id uint) (*model.Puzzle, error) {
	var puzzle model.Puzzle
	if err := r.db.First(&puzzle, id).Error; err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (r *puzzleRepository) FindAll(verified *bool, offset, limit int) ([]model.Puzzle, error) {
	var puzzles []model.Puzzle
	query := r.db.Order("created_at DESC")
	if verified != nil {
		query = query.Where("verified = ?", *verified)
	}
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&puzzles).Error; err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *puzzleRepository) FindVerifiedExcluding(excludeIDs []uint, limit int) ([]model.Puzzle, error) {
	var puzzles []model.Puzzle
	query := r.db.Where("verified = ?", true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	if err := query.Order("total_attempts DESC").Limit(limit).Find(&puzzles).Error; err != nil {
		return nil, err
	}
	return puzzles, nil
}

// SetVerified flips the verified flag with a single-column update. Writing the
// whole row here could clobber rollup counters committed by a concurrent
// attempt between a read and a save.
func (r *puzzleRepository) SetVerified(id uint) (*model.Puzzle, error) {
	res := r.db.Model(&model.Puzzle{}).Where("id = ?", id).Update("verified", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var puzzle model.Puzzle
	if err := r.db.First(&puzzle, id).Error; err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (r *puzzleRepository) ApplyCalibration(puzzleID uint, oldRating, newRating int, difficulty string, pointValue int, history *model.PuzzleRatingHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var puzzle model.Puzzle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&puzzle, puzzleID).Error; err != nil {
			return err
		}
		if puzzle.Rating != oldRating {
			return ErrStaleRating
		}

		updates := map[string]interface{}{
			"rating":              newRating,
			"difficulty":          difficulty,
			"point_value":         pointValue,
			"last_calibration_at": time.Now(),
		}
		if err := tx.Model(&model.Puzzle{}).Where("id = ?", puzzleID).Updates(updates).Error; err != nil {
			return err
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
