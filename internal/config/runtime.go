// Package config assembles the process configuration: defaults, the
// optional ~/.mimosa/config.yaml settings file, a .env file, and
// environment variable overrides, in that order of increasing precedence.
package config

import (
	"os"
	"path/filepath"

	"github.com/mimosa-app/mimosa/internal/logger"
)

// RuntimeConfig holds everything the serve command needs to wire the
// services together.
type RuntimeConfig struct {
	// DataDir is where mimosa keeps its state, ~/.mimosa by default.
	DataDir string
	// DiaryFile is the JSON file backing the entry store.
	DiaryFile string
	// ListenAddr is the local address the API binds to.
	ListenAddr string
	// Model is the generative model name.
	Model string
	// APIKey is the Generative Language API credential. Its absence is a
	// construction-time fatal error in the responder, not here.
	APIKey string
}

// Load builds the runtime configuration. It never fails: missing optional
// pieces fall back to defaults and problems are logged.
func Load() *RuntimeConfig {
	LoadDotEnv()

	cfg := &RuntimeConfig{
		DataDir:    defaultDataDir(),
		ListenAddr: "127.0.0.1:8990",
	}

	settings := loadSettings(filepath.Join(cfg.DataDir, "config.yaml"))
	if settings.ListenAddr != "" {
		cfg.ListenAddr = settings.ListenAddr
	}
	if settings.DiaryFile != "" {
		cfg.DiaryFile = settings.DiaryFile
	}
	if settings.Model != "" {
		cfg.Model = settings.Model
	}

	if addr := os.Getenv("MIMOSA_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if file := os.Getenv("MIMOSA_DIARY_FILE"); file != "" {
		cfg.DiaryFile = file
	}
	if model := os.Getenv("MIMOSA_MODEL"); model != "" {
		cfg.Model = model
	}
	cfg.APIKey = os.Getenv("GOOGLE_API_KEY")

	if cfg.DiaryFile == "" {
		cfg.DiaryFile = filepath.Join(cfg.DataDir, "diary_data.json")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warnf("Failed to create data directory %s: %v", cfg.DataDir, err)
	}

	return cfg
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "."
		}
	}
	return filepath.Join(homeDir, ".mimosa")
}
