package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/service"
)

type PuzzleController struct {
	puzzleService  service.PuzzleService
	attemptService service.AttemptService
}

func NewPuzzleController(puzzleSvc service.PuzzleService, attemptSvc service.AttemptService) *PuzzleController {
	return &PuzzleController{
		puzzleService:  puzzleSvc,
		attemptService: attemptSvc,
	}
}

// CreatePuzzle godoc
// @Summary Create a new puzzle
// @Description Create a tactics puzzle. When no rating is supplied the initial heuristic estimates one from the position and solution.
// @Tags Puzzles
// @Accept json
// @Produce json
// @Param puzzle body dto.PuzzleCreateDTO true "Puzzle definition"
// @Success 201 {object} dto.PuzzleResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid puzzle payload"
// @Failure 404 {object} dto.ErrorResponse "Creator not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /puzzles [post]
func (c *PuzzleController) CreatePuzzle(ctx *gin.Context) {
	var req dto.PuzzleCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	created, err := c.puzzleService.CreatePuzzle(req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		case errors.Is(err, service.ErrInvalidPuzzle):
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		default:
			log.Error().Err(err).Msg("CreatePuzzle: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create puzzle"})
		}
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// ListPuzzles godoc
// @Summary List puzzles
// @Description Paginated puzzle listing, optionally filtered by verification status.
// @Tags Puzzles
// @Produce json
// @Param verified query bool false "Filter by verified flag"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10)"
// @Success 200 {array} dto.PuzzleResponseDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /puzzles [get]
func (c *PuzzleController) ListPuzzles(ctx *gin.Context) {
	var verified *bool
	if v := ctx.Query("verified"); v != "" {
		b := v == "true"
		verified = &b
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))

	puzzles, err := c.puzzleService.ListPuzzles(verified, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("ListPuzzles: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list puzzles"})
		return
	}
	ctx.JSON(http.StatusOK, puzzles)
}

// GetPuzzle godoc
// @Summary Get a puzzle
// @Tags Puzzles
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Success 200 {object} dto.PuzzleResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Puzzle ID format"
// @Failure 404 {object} dto.ErrorResponse "Puzzle not found"
// @Router /puzzles/{puzzle_id} [get]
func (c *PuzzleController) GetPuzzle(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	puzzle, err := c.puzzleService.GetPuzzle(puzzleID)
	if err != nil {
		respondPuzzleError(ctx, err, "GetPuzzle")
		return
	}
	ctx.JSON(http.StatusOK, puzzle)
}

// SubmitAttempt godoc
// @Summary Record a solving attempt
// @Description Records the outcome of one solving session. Appends the attempt, updates the puzzle rollups atomically, and may trigger recalibration when the attempt count crosses the interval.
// @Tags Puzzles
// @Accept json
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Param attempt body dto.AttemptSubmitDTO true "Attempt outcome"
// @Success 201 {object} dto.AttemptResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt payload"
// @Failure 404 {object} dto.ErrorResponse "Puzzle or user not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /puzzles/{puzzle_id}/attempts [post]
func (c *PuzzleController) SubmitAttempt(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	var req dto.AttemptSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	attempt, err := c.attemptService.RecordAttempt(puzzleID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPuzzleNotFound), errors.Is(err, service.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		case errors.Is(err, service.ErrInvalidAttempt):
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		default:
			log.Error().Err(err).Uint("puzzleID", puzzleID).Msg("SubmitAttempt: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to record attempt"})
		}
		return
	}
	ctx.JSON(http.StatusCreated, attempt)
}

// GetPuzzleMetrics godoc
// @Summary Get puzzle rollup metrics
// @Description Current denormalized counters plus the success rate computed on demand.
// @Tags Puzzles
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Success 200 {object} dto.PuzzleMetricsDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Puzzle ID format"
// @Failure 404 {object} dto.ErrorResponse "Puzzle not found"
// @Router /puzzles/{puzzle_id}/metrics [get]
func (c *PuzzleController) GetPuzzleMetrics(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	m, err := c.puzzleService.GetMetrics(puzzleID)
	if err != nil {
		respondPuzzleError(ctx, err, "GetPuzzleMetrics")
		return
	}
	ctx.JSON(http.StatusOK, m)
}

// GetRatingHistory godoc
// @Summary Get puzzle rating history
// @Description Full calibration ledger for a puzzle, most recent first.
// @Tags Puzzles
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Success 200 {array} dto.RatingHistoryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Puzzle ID format"
// @Failure 404 {object} dto.ErrorResponse "Puzzle not found"
// @Router /puzzles/{puzzle_id}/rating-history [get]
func (c *PuzzleController) GetRatingHistory(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	history, err := c.puzzleService.GetRatingHistory(puzzleID)
	if err != nil {
		respondPuzzleError(ctx, err, "GetRatingHistory")
		return
	}
	ctx.JSON(http.StatusOK, history)
}

func parsePuzzleID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("puzzle_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Puzzle ID format"})
		return 0, false
	}
	return uint(id), true
}

func respondPuzzleError(ctx *gin.Context, err error, op string) {
	if errors.Is(err, service.ErrPuzzleNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	log.Error().Err(err).Str("op", op).Msg("Puzzle controller: service error")
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
}
