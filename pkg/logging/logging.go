package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/roffe/rigsync/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output is the destination of every logger derived from the one returned
// by New. The console part can be swapped at runtime, e.g. from stderr to
// a terminal UI view, and child loggers follow along.
type Output struct {
	mu      sync.Mutex
	file    *lumberjack.Logger
	console io.Writer
}

func (o *Output) Write(b []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file != nil {
		if _, err := o.file.Write(b); err != nil {
			return 0, err
		}
	}
	if o.console != nil {
		if _, err := o.console.Write(b); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// SetConsole replaces the console writer. nil disables console output.
func (o *Output) SetConsole(w io.Writer) {
	o.mu.Lock()
	o.console = w
	o.mu.Unlock()
}

// Close releases the log file, if any.
func (o *Output) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

// New builds the application logger writing to console and, when
// configured, to a rotating log file.
func New(cfg config.Log, console io.Writer) (*log.Logger, *Output, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out := &Output{console: console}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		out.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return logger, out, nil
}
