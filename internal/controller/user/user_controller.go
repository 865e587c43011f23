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

type UserController struct {
	userService    service.UserService
	attemptService service.AttemptService
	recommender    service.RecommenderService
}

func NewUserController(userSvc service.UserService, attemptSvc service.AttemptService, recommender service.RecommenderService) *UserController {
	return &UserController{
		userService:    userSvc,
		attemptService: attemptSvc,
		recommender:    recommender,
	}
}

// CreateUser godoc
// @Summary Register a solver
// @Tags Users
// @Accept json
// @Produce json
// @Param user body dto.UserCreateDTO true "User data"
// @Success 201 {object} dto.UserResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.UserCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	created, err := c.userService.CreateUser(req)
	if err != nil {
		log.Error().Err(err).Msg("CreateUser: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create user"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// GetUser godoc
// @Summary Get a solver profile
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid User ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{user_id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	user, err := c.userService.GetUser(userID)
	if err != nil {
		respondUserError(ctx, err, "GetUser")
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// GetUserAttempts godoc
// @Summary Get a solver's attempt history
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} dto.AttemptResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid User ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{user_id}/attempts [get]
func (c *UserController) GetUserAttempts(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	attempts, err := c.attemptService.GetUserAttempts(userID)
	if err != nil {
		respondUserError(ctx, err, "GetUserAttempts")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetRecommendations godoc
// @Summary Get a personalized puzzle queue
// @Description Scores verified, unsolved puzzles for the solver. LLM-backed when configured, heuristic otherwise.
// @Tags Users
// @Produce json
// @Param user_id query int true "User ID"
// @Param count query int false "Number of recommendations (default 5)"
// @Success 200 {array} dto.RecommendationDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid User ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /recommendations [get]
func (c *UserController) GetRecommendations(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Query("user_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid User ID format in query"})
		return
	}
	count, _ := strconv.Atoi(ctx.DefaultQuery("count", "5"))

	recs, err := c.recommender.Recommend(uint(userID), count)
	if err != nil {
		respondUserError(ctx, err, "GetRecommendations")
		return
	}
	ctx.JSON(http.StatusOK, recs)
}

func parseUserID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("user_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid User ID format"})
		return 0, false
	}
	return uint(id), true
}

func respondUserError(ctx *gin.Context, err error, op string) {
	if errors.Is(err, service.ErrUserNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	log.Error().Err(err).Str("op", op).Msg("User controller: service error")
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
}
