package repository

import (
	"math"

	"github.com/tmarlier/Castellan/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	// CreateWithRollup appends the attempt row and updates the owning puzzle's
	// denormalized counters in a single transaction. The puzzle row is locked
	// for the duration so concurrent attempts never lose an increment.
	// Returns the puzzle with its rollups as of this attempt.
	CreateWithRollup(attempt *model.PuzzleAttempt) (*model.Puzzle, error)
	FindRecentByPuzzle(puzzleID uint, limit int) ([]model.PuzzleAttempt, error)
	FindByUser(userID uint) ([]model.PuzzleAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateWithRollup(attempt *model.PuzzleAttempt) (*model.Puzzle, error) {
	var puzzle model.Puzzle
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&puzzle, attempt.PuzzleID).Error; err != nil {
			return err
		}
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		puzzle.TotalAttempts++
		if attempt.Completed {
			puzzle.SuccessfulAttempts++
			// Incremental mean over completed attempts only.
			n := float64(puzzle.SuccessfulAttempts)
			puzzle.AverageTimeToSolve = int(math.Round((float64(puzzle.AverageTimeToSolve)*(n-1) + float64(attempt.TimeSpentSeconds)) / n))
		}

		return tx.Model(&model.Puzzle{}).Where("id = ?", puzzle.ID).
			Updates(map[string]interface{}{
				"total_attempts":        puzzle.TotalAttempts,
				"successful_attempts":   puzzle.SuccessfulAttempts,
				"average_time_to_solve": puzzle.AverageTimeToSolve,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (r *attemptRepository) FindRecentByPuzzle(puzzleID uint, limit int) ([]model.PuzzleAttempt, error) {
	var attempts []model.PuzzleAttempt
	query := r.db.Where("puzzle_id = ?", puzzleID).Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) FindByUser(userID uint) ([]model.PuzzleAttempt, error) {
	var attempts []model.PuzzleAttempt
	if err := r.db.Where("user_id = ?", userID).Order("occurred_at DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
