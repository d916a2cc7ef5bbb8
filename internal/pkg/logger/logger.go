package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/go-chi/httplog/v3"
)

const appName = "attendance-cmlabs"

// New builds the JSON logger shared by the request logger and the services.
func New(cfg config.AppConfig) *slog.Logger {
	return newWithWriter(os.Stdout, cfg)
}

func newWithWriter(w io.Writer, cfg config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(cfg.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)
}

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// RequestLoggerOptions is the httplog configuration used by the router.
func RequestLoggerOptions(cfg config.AppConfig) *httplog.Options {
	return &httplog.Options{
		Level:  ParseLevel(cfg.LogLevel),
		Schema: httplog.SchemaECS,
	}
}
