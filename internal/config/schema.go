package config

import (
	"path/filepath"
	"time"
)

// Backends a board can read from
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Config is the merged swimlane configuration
type Config struct {
	// Directory for the database, lock file and log
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// Where the board reads and writes tasks: sqlite or http
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Project the board opens on start
	Project string `yaml:"project" mapstructure:"project"`

	Theme  string `yaml:"theme" mapstructure:"theme"`
	Notify bool   `yaml:"notify" mapstructure:"notify"`

	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// Empty means <data_dir>/swimlane.log
	File string `yaml:"file" mapstructure:"file"`
}

// APIConfig configures the http backend
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Token   string        `yaml:"token" mapstructure:"token"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig configures swimlane serve
type ServerConfig struct {
	Addr       string        `yaml:"addr" mapstructure:"addr"`
	AuthSecret string        `yaml:"auth_secret" mapstructure:"auth_secret"`
	RedisURL   string        `yaml:"redis_url" mapstructure:"redis_url"`
	CacheTTL   time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// DBPath returns the SQLite database path
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "swimlane.db")
}

// LogPath returns the log file path
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, "swimlane.log")
}
