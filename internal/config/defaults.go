package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dori/swimlane/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".swimlane"
	}
	return filepath.Join(home, ".local", "share", "swimlane")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Backend: BackendSQLite,
		Project: model.InboxProjectID,
		Theme:   "nord",
		Notify:  false,
		Log: LogConfig{
			Level: "info",
		},
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			CacheTTL: 30 * time.Second,
		},
	}
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	content := append([]byte("# swimlane configuration\n"), data...)
	return os.WriteFile(path, content, 0644)
}
