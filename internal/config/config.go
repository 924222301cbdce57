// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joeshaw/envdecode"

	"github.com/knowledgebae/knowledge-bae-mcp/internal/logctx"
)

// Log formats accepted by Config.LogFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the knowledge-bae process configuration. Defaults are provided via
// struct tags.
type Config struct {
	// LogLevel is one of debug, info, warn, error. ENV: KNOWLEDGE_BAE_LOG_LEVEL
	LogLevel string `env:"KNOWLEDGE_BAE_LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: KNOWLEDGE_BAE_LOG_FORMAT
	LogFormat string `env:"KNOWLEDGE_BAE_LOG_FORMAT,default=text"`
	// PageSize bounds list results per page; 0 disables paging. ENV: KNOWLEDGE_BAE_PAGE_SIZE
	PageSize int `env:"KNOWLEDGE_BAE_PAGE_SIZE,default=0"`
	// ServerVersion is advertised as serverInfo.version. ENV: KNOWLEDGE_BAE_SERVER_VERSION
	ServerVersion string `env:"KNOWLEDGE_BAE_SERVER_VERSION,default=0.1.0"`
}

// Load decodes Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: want %s or %s", c.LogFormat, FormatText, FormatJSON)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("invalid page size %d: must not be negative", c.PageSize)
	}
	if c.ServerVersion == "" {
		return errors.New("server version must not be empty")
	}
	return nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

// NewLogger builds the process logger writing to w. The level is read from
// lv so it can be adjusted at runtime; lv is initialised from LogLevel.
func (c Config) NewLogger(w io.Writer, lv *slog.LevelVar) *slog.Logger {
	if level, err := ParseLevel(c.LogLevel); err == nil {
		lv.Set(level)
	}
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	if strings.ToLower(c.LogFormat) == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(logctx.Handler{Handler: h})
}
