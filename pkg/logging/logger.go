package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config configures the logger.
type Config struct {
	Level  string
	Format string // text, json
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: os.Stderr}
}

// New creates a sanitizing slog logger.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(NewSanitizingHandler(handler, NewSanitizer()))
}

// NewNop creates a logger that discards everything. Used by tests.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LLMRequest dumps a rendered prompt at debug level.
func LLMRequest(ctx context.Context, logger *slog.Logger, provider, model, stage, system, prompt string) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.DebugContext(ctx, "llm request",
		slog.String("provider", provider),
		slog.String("model", model),
		slog.String("stage", stage),
		slog.String("system", system),
		slog.String("prompt", prompt),
	)
}

// LLMResponse dumps a raw generation at debug level.
func LLMResponse(ctx context.Context, logger *slog.Logger, provider, model, stage, text string) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.DebugContext(ctx, "llm response",
		slog.String("provider", provider),
		slog.String("model", model),
		slog.String("stage", stage),
		slog.Int("chars", len(text)),
		slog.String("text", text),
	)
}
