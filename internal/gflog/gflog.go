// Package gflog wraps github.com/rs/zerolog as the run-wide structured
// logger: one global, reconfigurable sink so every package logs through the
// same writer and level filter instead of importing zerolog directly.
package gflog

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	logger.Store(&l)
}

// Configure replaces the global logger, writing at the given level to w. A
// nil w writes to os.Stderr.
func Configure(level zerolog.Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).Level(level).With().Timestamp().Logger()
	logger.Store(&l)
}

// WithRank returns a child logger scoped to the given rank, for
// multi-node runs that want every line tagged with its source rank.
func WithRank(rank int) zerolog.Logger {
	return logger.Load().With().Int("rank", rank).Logger()
}

func Debug() *zerolog.Event { return logger.Load().Debug() }
func Info() *zerolog.Event  { return logger.Load().Info() }
func Warn() *zerolog.Event  { return logger.Load().Warn() }
func Error() *zerolog.Event { return logger.Load().Error() }
