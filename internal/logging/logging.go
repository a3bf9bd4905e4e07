// Package logging builds the logrus logger shared by the CLI and the
// pipelines.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ALT-F4-LLC/mailvault/internal/config"
)

// RotationConfig holds configuration for log rotation.
type RotationConfig struct {
	Filename   string // log file path
	MaxSize    int    // megabytes before rotation
	MaxBackups int    // old files to retain
	MaxAge     int    // days to retain old files
	Compress   bool   // gzip rotated files
}

// DefaultRotationConfig returns default log rotation settings.
func DefaultRotationConfig(logFile string) RotationConfig {
	return RotationConfig{
		Filename:   logFile,
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}
}

func rotationFor(s config.LogSettings, path string) RotationConfig {
	rc := DefaultRotationConfig(path)
	if s.MaxSizeMB > 0 {
		rc.MaxSize = s.MaxSizeMB
	}
	if s.MaxBackups > 0 {
		rc.MaxBackups = s.MaxBackups
	}
	if s.MaxAgeDays > 0 {
		rc.MaxAge = s.MaxAgeDays
	}
	rc.Compress = s.Compress
	return rc
}

// NewRotator returns a lumberjack writer for rc.
func NewRotator(rc RotationConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   rc.Filename,
		MaxSize:    rc.MaxSize,
		MaxBackups: rc.MaxBackups,
		MaxAge:     rc.MaxAge,
		Compress:   rc.Compress,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger configured from s that writes to a rotated file at
// path. When file logging is disabled the logger discards its output. The
// returned closer releases the log file.
func New(s config.LogSettings, path string) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if name := strings.TrimSpace(s.Level); name != "" {
		l, err := logrus.ParseLevel(name)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing log level %q: %w", s.Level, err)
		}
		level = l
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})

	if !s.File || path == "" {
		log.SetOutput(io.Discard)
		return log, nopCloser{}, nil
	}

	w := NewRotator(rotationFor(s, path))
	log.SetOutput(w)
	return log, w, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
