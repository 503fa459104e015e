package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix = "WORDWATCH_"

	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "sqlite:wordwatch.db"
	defaultLogFormat         = LogFormatText
	defaultLogLevel          = slog.LevelInfo
	defaultModelMode         = ModelModeMock
	defaultProviderBaseURL   = "https://api.openai.com/v1"
	defaultProviderTimeout   = 30 * time.Second
	defaultDictionaryURL     = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultDictionaryTimeout = 4 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

type ModelMode string

const (
	ModelModeMock     ModelMode = "mock"
	ModelModeProvider ModelMode = "provider"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config controls server boot. Rules overrides of zero mean "use the
// roster's value".
type Config struct {
	HTTPAddr          string
	DatabaseURL       string
	LogFormat         LogFormat
	LogLevel          slog.Level
	ModelMode         ModelMode
	ProviderAPIKey    string
	ProviderBaseURL   string
	ProviderTimeout   time.Duration
	AgentsFile        string
	DictionaryURL     string
	DictionaryTimeout time.Duration
	ShutdownTimeout   time.Duration

	MaxTurns      int
	HistoryWindow int
	MaxNoteLength int
}

// Load reads runtime configuration from WORDWATCH_* environment variables.
func Load() (Config, error) {
	cfg := Default()

	if addr := env("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if dsn := env("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if level := env("LOG_LEVEL"); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = parsed
	}
	if format := env("LOG_FORMAT"); format != "" {
		parsed, err := parseLogFormat(format)
		if err != nil {
			return Config{}, err
		}
		cfg.LogFormat = parsed
	}
	if mode := env("MODEL_MODE"); mode != "" {
		cfg.ModelMode = ModelMode(strings.ToLower(mode))
	}
	if key := env("OPENAI_API_KEY"); key != "" {
		cfg.ProviderAPIKey = key
	}
	if baseURL := env("OPENAI_BASE_URL"); baseURL != "" {
		cfg.ProviderBaseURL = baseURL
	}
	if file := env("AGENTS_FILE"); file != "" {
		cfg.AgentsFile = file
	}
	if u := env("DICTIONARY_URL"); u != "" {
		cfg.DictionaryURL = u
	}

	var err error
	if cfg.ProviderTimeout, err = envDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DictionaryTimeout, err = envDuration("DICTIONARY_TIMEOUT", cfg.DictionaryTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxTurns, err = envInt("MAX_TURNS", cfg.MaxTurns); err != nil {
		return Config{}, err
	}
	if cfg.HistoryWindow, err = envInt("HISTORY_WINDOW", cfg.HistoryWindow); err != nil {
		return Config{}, err
	}
	if cfg.MaxNoteLength, err = envInt("MAX_NOTE_LENGTH", cfg.MaxNoteLength); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		HTTPAddr:          defaultHTTPAddr,
		DatabaseURL:       defaultDatabaseURL,
		LogFormat:         defaultLogFormat,
		LogLevel:          defaultLogLevel,
		ModelMode:         defaultModelMode,
		ProviderBaseURL:   defaultProviderBaseURL,
		ProviderTimeout:   defaultProviderTimeout,
		DictionaryURL:     defaultDictionaryURL,
		DictionaryTimeout: defaultDictionaryTimeout,
		ShutdownTimeout:   defaultShutdownTimeout,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("validate config: WORDWATCH_HTTP_ADDR must not be empty")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("validate config: WORDWATCH_DATABASE_URL must not be empty")
	}

	switch c.ModelMode {
	case ModelModeMock:
	case ModelModeProvider:
		if strings.TrimSpace(c.ProviderAPIKey) == "" {
			return errors.New("validate config: provider mode requires WORDWATCH_OPENAI_API_KEY")
		}
		if strings.TrimSpace(c.ProviderBaseURL) == "" {
			return errors.New("validate config: provider mode requires WORDWATCH_OPENAI_BASE_URL")
		}
		if c.ProviderTimeout <= 0 {
			return errors.New("validate config: provider mode requires WORDWATCH_PROVIDER_TIMEOUT > 0")
		}
		if strings.TrimSpace(c.DictionaryURL) == "" {
			return errors.New("validate config: provider mode requires WORDWATCH_DICTIONARY_URL")
		}
	default:
		return fmt.Errorf(
			"validate config: unsupported WORDWATCH_MODEL_MODE %q (allowed: %q, %q)",
			c.ModelMode,
			ModelModeMock,
			ModelModeProvider,
		)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf(
			"validate config: unsupported WORDWATCH_LOG_FORMAT %q (allowed: %q, %q)",
			c.LogFormat,
			LogFormatText,
			LogFormatJSON,
		)
	}

	if c.MaxTurns < 0 || c.HistoryWindow < 0 || c.MaxNoteLength < 0 {
		return errors.New("validate config: turn, history and note limits must not be negative")
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := env(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("parse %s%s: value must be > 0", envPrefix, name)
	}
	return parsed, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := env(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("parse %s%s: value must be > 0", envPrefix, name)
	}
	return parsed, nil
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("parse %sLOG_LEVEL: unsupported value %q", envPrefix, input)
	}
}

func parseLogFormat(input string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("parse %sLOG_FORMAT: unsupported value %q", envPrefix, input)
	}
}
