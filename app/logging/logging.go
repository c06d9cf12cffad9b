package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a text handler on stdout as the default slog logger.
func Setup(debug bool) *slog.Logger {
	return SetupWriter(os.Stdout, debug)
}

func SetupWriter(w io.Writer, debug bool) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFor(debug),
	}))
	slog.SetDefault(logger)
	return logger
}

func levelFor(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
