// Package logging builds the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/errors"
)

const (
	defaultMaxSize    = 10 * 1024 * 1024 // 10MB
	defaultMaxBackups = 3
)

// Config holds logger configuration
type Config struct {
	Verbose    bool
	JSONFormat bool
	Console    io.Writer // defaults to stderr
	OutputFile string    // also append to this file (empty = console only)
	MaxSize    int64     // rotate the file once it reaches this many bytes
	MaxBackups int       // rotated files to keep as OutputFile.1 .. OutputFile.N
}

// Logger is a logrus logger that owns its log file
type Logger struct {
	*logrus.Logger
	file *os.File
}

// New creates a logger. The log file, if any, is rotated before opening.
func New(cfg Config) (*Logger, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = defaultMaxBackups
	}
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{Logger: logrus.New()}
	l.SetLevel(logrus.InfoLevel)
	if cfg.Verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	if cfg.JSONFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.OutputFile == "" {
		l.SetOutput(console)
		return l, nil
	}

	dir := filepath.Dir(cfg.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create log directory %s", dir)
	}
	if err := rotateIfNeeded(cfg.OutputFile, cfg.MaxSize, cfg.MaxBackups); err != nil {
		return nil, errors.FileSystemError(err, "failed to rotate logs")
	}
	file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open log file %s", cfg.OutputFile)
	}
	l.file = file
	l.SetOutput(io.MultiWriter(console, file))
	return l, nil
}

// Close closes the log file if one is open
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.SetOutput(os.Stderr)
	return err
}

// rotateIfNeeded shifts path to path.1 (and path.1 to path.2, ...) once it
// reaches maxSize; the oldest backup beyond maxBackups is overwritten
func rotateIfNeeded(path string, maxSize int64, maxBackups int) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < maxSize {
		return nil
	}

	for i := maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", path, i)
		newPath := fmt.Sprintf("%s.%d", path, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}
