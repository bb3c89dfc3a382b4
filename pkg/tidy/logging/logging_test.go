package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

// TestInit exercises Init with valid and invalid configurations.
// These tests share global state and must not run in parallel.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	componentsDir := t.TempDir()
	invalidDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(validDir, "tidy.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(componentsDir, "tidy.log"),
				Components: map[string]string{"organizer": "debug", "watcher": "warn"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(invalidDir, "tidy.log")},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(invalidDir, "tidy.log"),
				Components: map[string]string{"organizer": "chatty"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := logging.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "write.log")

	// Obtained before Init; must pick up the file sink afterwards.
	early := logging.Get("early")

	if err := logging.Init(logging.Config{Level: "debug", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("test").Info("test message", "key", "value")
	early.Info("early message")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Errorf("log file does not contain expected message, got: %s", content)
	}
	if !strings.Contains(string(content), "early message") {
		t.Errorf("logger created before Init did not write to file, got: %s", content)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")

	cfg := logging.Config{
		Level:      "error",
		Path:       logPath,
		Components: map[string]string{"verbose": "debug"},
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("normal").Info("normal info should not appear")
	logging.Get("verbose").Info("verbose info should appear")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	logContent := string(content)

	if strings.Contains(logContent, "normal info should not appear") {
		t.Error("normal info message should not appear when default level is error")
	}
	if !strings.Contains(logContent, "verbose info should appear") {
		t.Error("verbose info message should appear when component level is debug")
	}
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	logger := logging.Get("silent")
	logger.Info("nobody hears this")

	if logger.Component() != "silent" {
		t.Errorf("Component() = %q, want %q", logger.Component(), "silent")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"", logging.LevelInfo, false},
		{"trace", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, logging.ErrInvalidLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Parallel()

	path := logging.DefaultLogPath()
	if filepath.Base(path) != "tidy.log" {
		t.Errorf("DefaultLogPath() = %q, want file named tidy.log", path)
	}
	if filepath.Base(filepath.Dir(path)) != "tidy" {
		t.Errorf("DefaultLogPath() = %q, want parent directory tidy", path)
	}
}
