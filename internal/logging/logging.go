package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// Debug forces debug level regardless of the configured level.
var Debug bool

// Options selects the handler for New.
type Options struct {
	Level slog.Level
	JSON  bool
}

// New returns a logger writing to w: tint text output by default, JSON when
// opts.JSON is set.
func New(w io.Writer, opts Options) *slog.Logger {
	level := opts.Level
	if Debug {
		level = slog.LevelDebug
	}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	}))
}
