package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	MongoDB MongoDBConfig
	Market  MarketConfig
	Weather WeatherConfig
	Sheets  SheetsConfig
	Digest  DigestConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// AIConfig holds settings for the Gemini provider.
type AIConfig struct {
	GeminiKey       string
	Model           string
	MaxOutputTokens int
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// MarketConfig configures the market price tool adapter. BaseURL is optional;
// when empty the adapter serves static fallback prices only.
type MarketConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Unit     string
}

// WeatherConfig configures the weather forecast tool adapter. BaseURL is
// optional; when empty the adapter serves synthetic forecasts only.
type WeatherConfig struct {
	BaseURL string
}

// SheetsConfig contains configuration required to export history digests to
// Google Sheets. Both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// DigestConfig holds scheduler-related settings for the history digest job.
type DigestConfig struct {
	CronSchedule  string
	Timezone      string
	RetentionDays int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	retentionDays, err := getenvInt("HISTORY_RETENTION_DAYS", 0)
	if err != nil {
		return nil, err
	}

	maxOutputTokens, err := getenvInt("GEMINI_MAX_OUTPUT_TOKENS", 2048)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		AI: AIConfig{
			GeminiKey:       os.Getenv("GEMINI_API_KEY"),
			Model:           getenvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxOutputTokens: maxOutputTokens,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "agroyield"),
		},
		Market: MarketConfig{
			BaseURL:  os.Getenv("MARKET_API_BASE_URL"),
			APIKey:   os.Getenv("MARKET_API_KEY"),
			Currency: getenvWithDefault("MARKET_CURRENCY", "INR"),
			Unit:     getenvWithDefault("MARKET_PRICE_UNIT", "kg"),
		},
		Weather: WeatherConfig{
			BaseURL: os.Getenv("WEATHER_API_BASE_URL"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Digest: DigestConfig{
			CronSchedule:  getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:      getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
			RetentionDays: retentionDays,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.AI.GeminiKey == "":
		return errors.New("GEMINI_API_KEY must be provided")
	case c.AI.Model == "":
		return errors.New("GEMINI_MODEL must not be empty")
	case c.AI.MaxOutputTokens <= 0:
		return errors.New("GEMINI_MAX_OUTPUT_TOKENS must be positive")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Market.Currency == "" {
		return errors.New("MARKET_CURRENCY must not be empty")
	}
	if c.Market.Unit == "" {
		return errors.New("MARKET_PRICE_UNIT must not be empty")
	}

	// Sheets export is optional but must be configured as a pair.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}
	if c.Digest.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if c.Digest.RetentionDays < 0 {
		return errors.New("HISTORY_RETENTION_DAYS must not be negative")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
