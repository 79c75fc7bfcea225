package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"labportal/pkg/config"
)

// New constructs the process logger. Defaults to JSON at info level on
// stdout when config fields are empty.
func New(cfg config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if s := strings.ToLower(strings.TrimSpace(cfg.Log.Level)); s != "" {
		if parsed, err := zerolog.ParseLevel(s); err == nil {
			level = parsed
		}
	}

	var out = os.Stdout
	logger := zerolog.New(out)
	if strings.ToLower(strings.TrimSpace(cfg.Log.Format)) == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return logger.
		Level(level).
		With().
		Timestamp().
		Str("app", cfg.AppName).
		Str("env", cfg.AppEnv).
		Logger()
}
