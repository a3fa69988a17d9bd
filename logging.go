package swapbench

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// NewLogger returns a colorized slog logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}
