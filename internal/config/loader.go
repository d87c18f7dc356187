package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SWIMLANE_API_BASE_URL
const EnvPrefix = "SWIMLANE"

// LoadOptions controls where configuration comes from
type LoadOptions struct {
	// ConfigFile, when set, is merged last and must exist
	ConfigFile string

	// Files replaces the default global and project paths. Nil means defaults.
	Files []string

	// EnvFile is loaded into the environment first. Empty means ".env".
	EnvFile string

	// Overrides win over everything else, keyed like "api.base_url"
	Overrides map[string]any
}

// Load merges defaults, config files, .env, SWIMLANE_* variables and
// overrides, in increasing precedence.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	files := opts.Files
	if files == nil {
		files = []string{GlobalConfigPath(), ProjectConfigPath()}
	}
	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}
	if opts.ConfigFile != "" {
		if err := mergeFile(v, opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so environment variables can override
// keys that no file mentions
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("project", d.Project)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("notify", d.Notify)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.token", d.API.Token)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.auth_secret", d.Server.AuthSecret)
	v.SetDefault("server.redis_url", d.Server.RedisURL)
	v.SetDefault("server.cache_ttl", d.Server.CacheTTL)
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DataDir == "" {
			return errors.New("data_dir is required for the sqlite backend")
		}
	case BackendHTTP:
		if c.API.BaseURL == "" {
			return errors.New("api.base_url is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendHTTP)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative, got %s", c.Server.CacheTTL)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Project == "" {
		return errors.New("project is required")
	}
	return nil
}

// YAML renders the merged configuration. The API token and auth secret are
// masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.API.Token != "" {
		out.API.Token = "********"
	}
	if out.Server.AuthSecret != "" {
		out.Server.AuthSecret = "********"
	}
	return yaml.Marshal(&out)
}

// GlobalConfigPath returns the path to the per-user config file
func GlobalConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "swimlane", "config.yaml")
}

// ProjectConfigPath returns the path to the working-directory config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".swimlane.yaml")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
