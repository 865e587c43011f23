package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

// DifficultyForRating maps a numeric rating to its coarse bucket.
func DifficultyForRating(rating int) string {
	switch {
	case rating < 1500:
		return model.DifficultyBeginner
	case rating < 2000:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyAdvanced
	}
}

// PointValueForDifficulty derives the points awarded for solving a puzzle in
// the given bucket.
func PointValueForDifficulty(difficulty string) int {
	switch difficulty {
	case model.DifficultyIntermediate:
		return 20
	case model.DifficultyAdvanced:
		return 30
	default:
		return 10
	}
}

type PuzzleService interface {
	CreatePuzzle(req dto.PuzzleCreateDTO) (*dto.PuzzleResponseDTO, error)
	GetPuzzle(id uint) (*dto.PuzzleResponseDTO, error)
	ListPuzzles(verified *bool, page, pageSize int) ([]dto.PuzzleResponseDTO, error)
	GetMetrics(id uint) (*dto.PuzzleMetricsDTO, error)
	GetRatingHistory(id uint) ([]dto.RatingHistoryDTO, error)
	VerifyPuzzle(id uint) (*dto.PuzzleResponseDTO, error)
}

type puzzleService struct {
	puzzleRepo    repository.PuzzleRepository
	userRepo      repository.UserRepository
	historyRepo   repository.RatingHistoryRepository
	initialRating InitialRatingService
}

func NewPuzzleService(
	puzzleRepo repository.PuzzleRepository,
	userRepo repository.UserRepository,
	historyRepo repository.RatingHistoryRepository,
	initialRating InitialRatingService,
) PuzzleService {
	return &puzzleService{
		puzzleRepo:    puzzleRepo,
		userRepo:      userRepo,
		historyRepo:   historyRepo,
		initialRating: initialRating,
	}
}

func (s *puzzleService) CreatePuzzle(req dto.PuzzleCreateDTO) (*dto.PuzzleResponseDTO, error) {
	if _, err := s.userRepo.FindByID(req.CreatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: creator id %d", ErrUserNotFound, req.CreatorID)
		}
		return nil, fmt.Errorf("fetching creator %d: %w", req.CreatorID, err)
	}
	if strings.TrimSpace(req.FEN) == "" || strings.TrimSpace(req.Solution) == "" {
		return nil, fmt.Errorf("%w: fen and solution are required", ErrInvalidPuzzle)
	}

	rating := req.Rating
	if rating == 0 {
		// No rating supplied: one-shot heuristic estimate from static
		// position features, superseded by the calibration engine once
		// real attempts accumulate.
		rating = s.initialRating.EstimateRating(req.FEN, req.Solution, req.TacticalThemes, req.EngineEval)
		log.Info().Int("rating", rating).Str("title", req.Title).Msg("Assigned initial heuristic rating to new puzzle")
	}

	difficulty := DifficultyForRating(rating)
	puzzle := model.Puzzle{
		CreatorID:      req.CreatorID,
		Title:          req.Title,
		Description:    req.Description,
		FEN:            req.FEN,
		Solution:       req.Solution,
		TacticalThemes: strings.Join(req.TacticalThemes, ","),
		Rating:         rating,
		Difficulty:     difficulty,
		HintsAvailable: req.HintsAvailable,
		PointValue:     PointValueForDifficulty(difficulty),
		EngineEval:     req.EngineEval,
	}

	if err := s.puzzleRepo.Create(&puzzle); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create puzzle")
		return nil, fmt.Errorf("creating puzzle: %w", err)
	}
	return puzzleToDTO(&puzzle), nil
}

func (s *puzzleService) GetPuzzle(id uint) (*dto.PuzzleResponseDTO, error) {
	puzzle, err := s.findPuzzle(id)
	if err != nil {
		return nil, err
	}
	return puzzleToDTO(puzzle), nil
}

func (s *puzzleService) ListPuzzles(verified *bool, page, pageSize int) ([]dto.PuzzleResponseDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	puzzles, err := s.puzzleRepo.FindAll(verified, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing puzzles: %w", err)
	}

	dtos := make([]dto.PuzzleResponseDTO, 0, len(puzzles))
	for i := range puzzles {
		dtos = append(dtos, *puzzleToDTO(&puzzles[i]))
	}
	return dtos, nil
}

// GetMetrics returns the denormalized rollups with the success rate computed
// on demand from the counters.
func (s *puzzleService) GetMetrics(id uint) (*dto.PuzzleMetricsDTO, error) {
	puzzle, err := s.findPuzzle(id)
	if err != nil {
		return nil, err
	}

	m := dto.PuzzleMetricsDTO{
		PuzzleID:           puzzle.ID,
		Rating:             puzzle.Rating,
		TotalAttempts:      puzzle.TotalAttempts,
		SuccessfulAttempts: puzzle.SuccessfulAttempts,
		AverageTimeToSolve: puzzle.AverageTimeToSolve,
		LastCalibrationAt:  puzzle.LastCalibrationAt,
	}
	if puzzle.TotalAttempts > 0 {
		m.SuccessRate = float64(puzzle.SuccessfulAttempts) / float64(puzzle.TotalAttempts) * 100
	}
	return &m, nil
}

func (s *puzzleService) GetRatingHistory(id uint) ([]dto.RatingHistoryDTO, error) {
	if _, err := s.findPuzzle(id); err != nil {
		return nil, err
	}

	records, err := s.historyRepo.FindByPuzzleID(id)
	if err != nil {
		return nil, fmt.Errorf("fetching rating history for puzzle %d: %w", id, err)
	}

	dtos := make([]dto.RatingHistoryDTO, 0, len(records))
	for _, rec := range records {
		var d dto.RatingHistoryDTO
		if err := copier.Copy(&d, &rec); err != nil {
			log.Error().Err(err).Uint("recordID", rec.ID).Msg("Failed to copy rating history record to DTO")
			continue
		}
		dtos = append(dtos, d)
	}
	return dtos, nil
}

func (s *puzzleService) VerifyPuzzle(id uint) (*dto.PuzzleResponseDTO, error) {
	puzzle, err := s.puzzleRepo.SetVerified(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPuzzleNotFound, id)
		}
		return nil, fmt.Errorf("verifying puzzle %d: %w", id, err)
	}
	log.Info().Uint("puzzleID", id).Msg("Puzzle verified")
	return puzzleToDTO(puzzle), nil
}

func (s *puzzleService) findPuzzle(id uint) (*model.Puzzle, error) {
	puzzle, err := s.puzzleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPuzzleNotFound, id)
		}
		return nil, fmt.Errorf("fetching puzzle %d: %w", id, err)
	}
	return puzzle, nil
}

func puzzleToDTO(puzzle *model.Puzzle) *dto.PuzzleResponseDTO {
	var d dto.PuzzleResponseDTO
	if err := copier.Copy(&d, puzzle); err != nil {
		log.Error().Err(err).Uint("puzzleID", puzzle.ID).Msg("Failed to copy puzzle to DTO")
	}
	if puzzle.TacticalThemes != "" {
		d.TacticalThemes = strings.Split(puzzle.TacticalThemes, ",")
	}
	return &d
}
