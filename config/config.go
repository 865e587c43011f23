package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Calibration  Calibration
	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Calibration holds the tunable constants of the difficulty engine. Defaults
// are the canonical formula; operators may override any of them through the
// environment without a rebuild.
type Calibration struct {
	MinSampleSize      int
	TriggerInterval    int
	WindowSize         int
	HardBaseDelta      float64
	EasyBaseDelta      float64
	LowSuccessRate     float64
	AttemptDivisor     float64
	HintDivisor        float64
	MinRating          int
	MaxRating          int
	HighDiffThreshold  int
	VeryHighDiffThresh int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("CALIBRATION_MIN_SAMPLE_SIZE", 5)
	viper.SetDefault("CALIBRATION_TRIGGER_INTERVAL", 5)
	viper.SetDefault("CALIBRATION_WINDOW_SIZE", 50)
	viper.SetDefault("CALIBRATION_HARD_BASE_DELTA", 400.0)
	viper.SetDefault("CALIBRATION_EASY_BASE_DELTA", -200.0)
	viper.SetDefault("CALIBRATION_LOW_SUCCESS_RATE", 40.0)
	viper.SetDefault("CALIBRATION_ATTEMPT_DIVISOR", 10.0)
	viper.SetDefault("CALIBRATION_HINT_DIVISOR", 5.0)
	viper.SetDefault("CALIBRATION_MIN_RATING", 500)
	viper.SetDefault("CALIBRATION_MAX_RATING", 3000)
	viper.SetDefault("CALIBRATION_HIGH_DIFF_THRESHOLD", 200)
	viper.SetDefault("CALIBRATION_VERY_HIGH_DIFF_THRESHOLD", 400)

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Calibration.MinSampleSize = viper.GetInt("CALIBRATION_MIN_SAMPLE_SIZE")
	config.Calibration.TriggerInterval = viper.GetInt("CALIBRATION_TRIGGER_INTERVAL")
	config.Calibration.WindowSize = viper.GetInt("CALIBRATION_WINDOW_SIZE")
	config.Calibration.HardBaseDelta = viper.GetFloat64("CALIBRATION_HARD_BASE_DELTA")
	config.Calibration.EasyBaseDelta = viper.GetFloat64("CALIBRATION_EASY_BASE_DELTA")
	config.Calibration.LowSuccessRate = viper.GetFloat64("CALIBRATION_LOW_SUCCESS_RATE")
	config.Calibration.AttemptDivisor = viper.GetFloat64("CALIBRATION_ATTEMPT_DIVISOR")
	config.Calibration.HintDivisor = viper.GetFloat64("CALIBRATION_HINT_DIVISOR")
	config.Calibration.MinRating = viper.GetInt("CALIBRATION_MIN_RATING")
	config.Calibration.MaxRating = viper.GetInt("CALIBRATION_MAX_RATING")
	config.Calibration.HighDiffThreshold = viper.GetInt("CALIBRATION_HIGH_DIFF_THRESHOLD")
	config.Calibration.VeryHighDiffThresh = viper.GetInt("CALIBRATION_VERY_HIGH_DIFF_THRESHOLD")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	log.Info().Interface("config", config).Msg("Config loaded")
	return &config, nil
}
