package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/service"
)

type AdminPuzzleController struct {
	calibrationService service.PuzzleCalibrationService
	puzzleService      service.PuzzleService
}

func NewAdminPuzzleController(calibrationSvc service.PuzzleCalibrationService, puzzleSvc service.PuzzleService) *AdminPuzzleController {
	return &AdminPuzzleController{
		calibrationService: calibrationSvc,
		puzzleService:      puzzleSvc,
	}
}

// CalibratePuzzle godoc
// @Summary (Admin) Recalibrate a puzzle's difficulty
// @Description Runs a full recalibration immediately, bypassing the attempt-count trigger. The minimum-sample gate still applies: with too few attempts in the window the rating stays unchanged.
// @Tags Admin - Puzzles
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Success 200 {object} dto.CalibrationResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Puzzle ID format"
// @Failure 404 {object} dto.ErrorResponse "Puzzle not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/puzzles/{puzzle_id}/calibrate [post]
func (c *AdminPuzzleController) CalibratePuzzle(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	result, err := c.calibrationService.RecalibratePuzzle(puzzleID)
	if err != nil {
		respondError(ctx, err, "CalibratePuzzle")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// VerifyPuzzle godoc
// @Summary (Admin) Mark a puzzle as verified
// @Tags Admin - Puzzles
// @Produce json
// @Param puzzle_id path int true "Puzzle ID"
// @Success 200 {object} dto.PuzzleResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Puzzle ID format"
// @Failure 404 {object} dto.ErrorResponse "Puzzle not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/puzzles/{puzzle_id}/verify [post]
func (c *AdminPuzzleController) VerifyPuzzle(ctx *gin.Context) {
	puzzleID, ok := parsePuzzleID(ctx)
	if !ok {
		return
	}

	puzzle, err := c.puzzleService.VerifyPuzzle(puzzleID)
	if err != nil {
		respondError(ctx, err, "VerifyPuzzle")
		return
	}
	ctx.JSON(http.StatusOK, puzzle)
}

func parsePuzzleID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("puzzle_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Puzzle ID format"})
		return 0, false
	}
	return uint(id), true
}

func respondError(ctx *gin.Context, err error, op string) {
	if errors.Is(err, service.ErrPuzzleNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	log.Error().Err(err).Str("op", op).Msg("Admin controller: service error")
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
}
