// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/db"
	"github.com/unclebandit/churn-etl/internal/scheduler"
)

const (
	DefaultPipelineName   = "prepare_churn_dataset"
	DefaultSchedule       = "@once"
	DefaultCommitEvery    = 1000
	DefaultHTTPAddr       = ":8080"
	DefaultTelegramAPIURL = "https://api.telegram.org"
)

// Config is resolved once at process start and not mutated afterwards.
type Config struct {
	PipelineName string
	Schedule     string
	CommitEvery  int
	HTTPAddr     string
	LogLevel     string

	Source      db.Settings
	Destination db.Settings

	AMQPURL string

	TelegramToken  string
	TelegramChatID string
	TelegramAPIURL string

	// Empty templates fall back to the worker defaults.
	NotifySuccessTemplate string
	NotifyFailureTemplate string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		PipelineName:   withDefault(getenv("PIPELINE_NAME"), DefaultPipelineName),
		Schedule:       withDefault(getenv("PIPELINE_SCHEDULE"), DefaultSchedule),
		CommitEvery:    DefaultCommitEvery,
		HTTPAddr:       withDefault(getenv("HTTP_ADDR"), DefaultHTTPAddr),
		LogLevel:       withDefault(getenv("LOG_LEVEL"), "info"),
		Source:         settings(getenv, "SOURCE_DB_"),
		Destination:    settings(getenv, "DEST_DB_"),
		AMQPURL:        getenv("AMQP_URL"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIURL: withDefault(getenv("TELEGRAM_API_URL"), DefaultTelegramAPIURL),

		NotifySuccessTemplate: getenv("NOTIFY_SUCCESS_TEMPLATE"),
		NotifyFailureTemplate: getenv("NOTIFY_FAILURE_TEMPLATE"),
	}

	if v := getenv("LOAD_COMMIT_EVERY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOAD_COMMIT_EVERY %q: %w", v, err)
		}
		cfg.CommitEvery = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.CommitEvery <= 0 {
		return fmt.Errorf("LOAD_COMMIT_EVERY must be positive, got %d", c.CommitEvery)
	}
	if err := scheduler.Validate(c.Schedule); err != nil {
		return fmt.Errorf("invalid PIPELINE_SCHEDULE %q: %w", c.Schedule, err)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// ValidateDatabases checks the settings of both databases. Only the
// processes that touch them call it.
func (c *Config) ValidateDatabases() error {
	if err := requireSettings("SOURCE_DB_", c.Source); err != nil {
		return err
	}
	return requireSettings("DEST_DB_", c.Destination)
}

func requireSettings(prefix string, s db.Settings) error {
	if s.Host == "" || s.Name == "" || s.User == "" {
		return fmt.Errorf("%sHOST, %sNAME and %sUSER are required", prefix, prefix, prefix)
	}
	return nil
}

// NotificationsEnabled reports whether Telegram credentials were supplied.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// SetupLogging applies the configured level to the global zerolog logger.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func settings(getenv func(string) string, prefix string) db.Settings {
	return db.Settings{
		User:     getenv(prefix + "USER"),
		Password: getenv(prefix + "PASSWORD"),
		Host:     getenv(prefix + "HOST"),
		Port:     withDefault(getenv(prefix+"PORT"), "5432"),
		Name:     getenv(prefix + "NAME"),
		SSLMode:  withDefault(getenv(prefix+"SSLMODE"), "disable"),
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
