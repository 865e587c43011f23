package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/database"
	_ "github.com/tmarlier/Castellan/docs" // Swagger docs
	adminctrl "github.com/tmarlier/Castellan/internal/controller/admin"
	userctrl "github.com/tmarlier/Castellan/internal/controller/user"
	"github.com/tmarlier/Castellan/internal/logger"
	"github.com/tmarlier/Castellan/internal/metrics"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"github.com/tmarlier/Castellan/internal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Castellan Tactics API
// @version 1.0
// @description Chess tactics puzzle service with self-calibrating difficulty ratings.
// @contact.name API Support
// @contact.email support@castellan.dev
// @license.name MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewPuzzleRepository,
			repository.NewAttemptRepository,
			repository.NewRatingHistoryRepository,
		),

		// Services layer
		fx.Provide(
			service.NewCalibrationEngine,
			service.NewMetricsService,
			service.NewPuzzleCalibrationService,
			service.NewInitialRatingService,
			service.NewPuzzleService,
			service.NewAttemptService,
			service.NewUserService,
			service.NewRecommenderService,
		),

		// API controllers layer
		fx.Provide(
			userctrl.NewPuzzleController,
			userctrl.NewUserController,
			adminctrl.NewAdminPuzzleController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	puzzleCtrl *userctrl.PuzzleController,
	userCtrl *userctrl.UserController,
	adminPuzzleCtrl *adminctrl.AdminPuzzleController,
) {
	// Admin routes (prefixed with /api/v1/admin)
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		puzzlesAdminGroup := adminAPIGroup.Group("/puzzles")
		puzzlesAdminGroup.POST("/:puzzle_id/calibrate", adminPuzzleCtrl.CalibratePuzzle)
		puzzlesAdminGroup.POST("/:puzzle_id/verify", adminPuzzleCtrl.VerifyPuzzle)
	}

	// User routes (prefixed with /api/v1)
	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.POST("/users", userCtrl.CreateUser)
		userAPIGroup.GET("/users/:user_id", userCtrl.GetUser)
		userAPIGroup.GET("/users/:user_id/attempts", userCtrl.GetUserAttempts)

		userAPIGroup.POST("/puzzles", puzzleCtrl.CreatePuzzle)
		userAPIGroup.GET("/puzzles", puzzleCtrl.ListPuzzles)
		userAPIGroup.GET("/puzzles/:puzzle_id", puzzleCtrl.GetPuzzle)
		userAPIGroup.POST("/puzzles/:puzzle_id/attempts", puzzleCtrl.SubmitAttempt)
		userAPIGroup.GET("/puzzles/:puzzle_id/metrics", puzzleCtrl.GetPuzzleMetrics)
		userAPIGroup.GET("/puzzles/:puzzle_id/rating-history", puzzleCtrl.GetRatingHistory)

		userAPIGroup.GET("/recommendations", userCtrl.GetRecommendations)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Castellan tactics server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Puzzle{},
		&model.PuzzleAttempt{},
		&model.PuzzleRatingHistory{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
