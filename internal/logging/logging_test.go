package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailvault.log")
	s := config.LogSettings{Level: "debug", File: true}

	log, closer, err := New(s, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", log.GetLevel())
	}
	log.WithField("stage", "lite").Debug("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(string(data), "stage=lite") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewFileDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailvault.log")
	log, closer, err := New(config.LogSettings{Level: "info"}, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("dropped")
	closer.Close()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file should not exist, stat err = %v", err)
	}
}

func TestNewDefaultLevel(t *testing.T) {
	log, _, err := New(config.LogSettings{}, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", log.GetLevel())
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, _, err := New(config.LogSettings{Level: "loud"}, ""); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRotationFor(t *testing.T) {
	rc := rotationFor(config.LogSettings{MaxSizeMB: 2}, "x.log")
	if rc.MaxSize != 2 || rc.MaxBackups != 10 || rc.MaxAge != 30 || rc.Compress {
		t.Errorf("rotationFor = %+v", rc)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := logrus.New()
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}
