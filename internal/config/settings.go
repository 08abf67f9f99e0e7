package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/mimosa-app/mimosa/internal/logger"
)

// Settings is the optional config.yaml in the data directory. Environment
// variables override anything set here.
type Settings struct {
	ListenAddr string `yaml:"listen_addr"`
	DiaryFile  string `yaml:"diary_file"`
	Model      string `yaml:"model"`
}

// loadSettings reads the settings file. A missing file yields zero-value
// settings; an unreadable one is logged and ignored.
func loadSettings(path string) Settings {
	var settings Settings

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to read settings file %s: %v", path, err)
		}
		return settings
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		logger.Warnf("Failed to parse settings file %s: %v", path, err)
		return Settings{}
	}
	return settings
}
