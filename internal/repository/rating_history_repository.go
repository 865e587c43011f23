package repository

import (
	"github.com/tmarlier/Castellan/internal/model"
	"gorm.io/gorm"
)

// RatingHistoryRepository is pure append/read; ledger rows are never updated
// or deleted.
type RatingHistoryRepository interface {
	Create(record *model.PuzzleRatingHistory) error
	FindByPuzzleID(puzzleID uint) ([]model.PuzzleRatingHistory, error)
}

type ratingHistoryRepository struct {
	db *gorm.DB
}

func NewRatingHistoryRepository(db *gorm.DB) RatingHistoryRepository {
	return &ratingHistoryRepository{db: db}
}

func (r *ratingHistoryRepository) Create(record *model.PuzzleRatingHistory) error {
	return r.db.Create(record).Error
}

func (r *ratingHistoryRepository) FindByPuzzleID(puzzleID uint) ([]model.PuzzleRatingHistory, error) {
	var records []model.PuzzleRatingHistory
	if err := r.db.Where("puzzle_id = ?", puzzleID).Order("calibrated_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
