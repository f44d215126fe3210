package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// remapKeys rewrites slog's default attribute keys to the field names the
// log pipeline indexes on.
func remapKeys(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}

// Setup installs a JSON slog handler as the process-wide default and returns
// the service logger. Every line carries the service name and, when set, the
// environment tag. Debug level is enabled in the dev environment. The
// standard library logger is bridged through the same handler so third-party
// packages using log.Printf stay structured.
func Setup(service, env string) *slog.Logger {
	env = strings.TrimSpace(env)
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: remapKeys,
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	logger := slog.New(handler.WithAttrs(attrs))
	slog.SetDefault(logger)

	bridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}
