package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken  string
	Translate TranslateConfig
	Database  DatabaseConfig
	Session   SessionConfig

	// QuotaDBPath is the device-local SQLite file holding usage counters
	QuotaDBPath string
	// LanguagesFile overrides the built-in language catalog when set
	LanguagesFile string
}

// TranslateConfig holds translation endpoint settings
type TranslateConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SessionConfig holds per-chat session settings
type SessionConfig struct {
	FreeTranslations int
	IdleTimeout      time.Duration
	DefaultSource    string
	DefaultTarget    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	timeout, err := getDuration("TRANSLATE_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	idle, err := getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	limit, err := getInt("FREE_TRANSLATION_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		Translate: TranslateConfig{
			APIURL:  getEnv("TRANSLATE_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			APIKey:  os.Getenv("TRANSLATE_API_KEY"),
			Model:   getEnv("TRANSLATE_MODEL", "gemini-1.5-flash-latest"),
			Timeout: timeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "linguo"),
			User:     getEnv("DB_USER", "linguo"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Session: SessionConfig{
			FreeTranslations: limit,
			IdleTimeout:      idle,
			DefaultSource:    getEnv("DEFAULT_SOURCE_LANG", "es"),
			DefaultTarget:    getEnv("DEFAULT_TARGET_LANG", "en"),
		},
		QuotaDBPath:   getEnv("QUOTA_DB_PATH", "data/quota.db"),
		LanguagesFile: os.Getenv("LANGUAGES_FILE"),
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.Translate.APIKey == "" {
		return nil, fmt.Errorf("TRANSLATE_API_KEY is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Session.FreeTranslations <= 0 {
		return nil, fmt.Errorf("FREE_TRANSLATION_LIMIT must be positive")
	}

	return cfg, nil
}

// LoadDatabase reads only the settings needed by maintenance commands
func LoadDatabase() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "linguo"),
			User:     getEnv("DB_USER", "linguo"),
			Password: os.Getenv("DB_PASSWORD"),
		},
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	return cfg, nil
}

// LoadLocal reads only the device-local storage settings
func LoadLocal() (*Config, error) {
	_ = godotenv.Load()

	limit, err := getInt("FREE_TRANSLATION_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("FREE_TRANSLATION_LIMIT must be positive")
	}

	return &Config{
		Session:     SessionConfig{FreeTranslations: limit},
		QuotaDBPath: getEnv("QUOTA_DB_PATH", "data/quota.db"),
	}, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
