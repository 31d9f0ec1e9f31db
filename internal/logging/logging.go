// Package logging builds the process logger: a console handler on stderr
// fanned out with an optional JSON log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

type Config struct {
	Verbose bool
	// Level overrides the level derived from Verbose when set.
	Level string
	// Format of the console handler: text (default) or json.
	Format string
	// File, when set, also receives every record at debug level as JSON.
	File string
	// Console defaults to os.Stderr.
	Console io.Writer
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns the logger and a function that releases the log file.
func New(c Config) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	if c.Level != "" {
		l, err := ParseLevel(c.Level)
		if err != nil {
			return nil, nil, err
		}
		level = l
	}
	console := c.Console
	if console == nil {
		console = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var consoleHandler slog.Handler
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "text":
		consoleHandler = slog.NewTextHandler(console, opts)
	case "json":
		consoleHandler = slog.NewJSONHandler(console, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want text or json)", c.Format)
	}

	handlers := []slog.Handler{consoleHandler}
	closer := func() error { return nil }
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
		closer = f.Close
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
