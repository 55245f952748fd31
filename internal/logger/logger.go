// Package logger builds the process-wide zerolog logger.
package logger

import (
    "io"
    "os"
    "time"

    "github.com/rs/zerolog"
)

// New returns a logger at the named level.  In dev the output is a
// human-readable console; elsewhere it is JSON lines on stdout.
func New(level, env string) zerolog.Logger {
    return NewWithWriter(os.Stdout, level, env)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, level, env string) zerolog.Logger {
    lvl, err := zerolog.ParseLevel(level)
    if err != nil || level == "" {
        lvl = zerolog.InfoLevel
    }
    if env == "dev" || env == "development" {
        w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
    }
    return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "festival-booking").Logger()
}
