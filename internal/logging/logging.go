// Package logging sets up structured slog output for the handicap-race CLI
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how log records are written
type Options struct {
	Service string
	RunID   string
	Level   string
	// LogFile enables size-rotated file output instead of stderr
	LogFile string
	// Output overrides the destination; used by tests
	Output  io.Writer
}

// ParseLevel maps a config level name onto slog
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func replaceAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: attr.Value}
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: attr.Value}
	}
	return attr
}

// Setup installs a structured default logger and bridges the standard
// library logger into it. The returned closer releases the log file, if any
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}

	var (
		handler slog.Handler
		closer  io.Closer = io.NopCloser(nil)
	)
	switch {
	case opts.Output != nil:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	case opts.LogFile != "":
		rotating := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     90,
		}
		handler = slog.NewJSONHandler(rotating, handlerOpts)
		closer = rotating
	case term.IsTerminal(int(os.Stderr.Fd())):
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if runID := strings.TrimSpace(opts.RunID); runID != "" {
		attrs = append(attrs, slog.String("run_id", runID))
	}
	handler = handler.WithAttrs(attrs)

	base := slog.New(handler)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler, slog.LevelInfo)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base, closer, nil
}
