package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Development gets a human-readable console
// writer, everything else gets JSON lines on stdout.
func New(env string) zerolog.Logger {
	var w io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "sehaty-api").Logger()
}
