// Package config loads upkeep settings from config.yaml, an optional .env
// file, and UPKEEP_* environment variables.
//
// Precedence, highest first: environment, .env in the config directory,
// config.yaml, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/upkeep/internal/logging"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const (
	fileName  = "config.yaml"
	envFile   = ".env"
	envPrefix = "UPKEEP"
)

// Config keys.
const (
	KeyBackend         = "backend"
	KeyDataDir         = "data_dir"
	KeyBusyTimeout     = "busy_timeout"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyCandidateFilter = "listing.candidate_filter"
)

var keys = []string{KeyBackend, KeyDataDir, KeyBusyTimeout, KeyLogLevel, KeyLogFormat, KeyCandidateFilter}

// defaultYAML is written to config.yaml on first run.
const defaultYAML = `# upkeep configuration
# Every key can be overridden by an UPKEEP_* environment variable,
# e.g. UPKEEP_LOG_LEVEL=debug, or by a .env file next to this one.

backend: sqlite

# data_dir: /path/to/data
# busy_timeout: 5s

log:
  level: warn
  format: console

listing:
  # active_plan: templated task types without an active plan for the item
  # template: task types of the item's type that have no template yet
  candidate_filter: active_plan
`

// Config is the resolved configuration.
type Config struct {
	Dir             string
	Backend         string
	DataDir         string
	BusyTimeout     time.Duration
	Log             logging.Config
	CandidateFilter maintenance.CandidateFilter
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads the configuration from dir, creating the directory and a
// default config.yaml when they are missing.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := WriteDefault(dir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(KeyBackend, types.BackendSQLite)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, logging.FormatConsole)
	v.SetDefault(KeyCandidateFilter, string(maintenance.FilterActivePlan))
	v.SetConfigFile(filepath.Join(dir, fileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	dotenv, err := readDotEnv(filepath.Join(dir, envFile))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		name := EnvVar(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if val, ok := dotenv[name]; ok {
			v.Set(key, val)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v, dir)
}

func readDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	return env, nil
}

func decode(v *viper.Viper, dir string) (*Config, error) {
	cfg := &Config{
		Dir:     dir,
		Backend: strings.TrimSpace(v.GetString(KeyBackend)),
		DataDir: strings.TrimSpace(v.GetString(KeyDataDir)),
		Log: logging.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if raw := strings.TrimSpace(v.GetString(KeyBusyTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrValidation, KeyBusyTimeout, err)
		}
		cfg.BusyTimeout = d
	}
	filter, err := maintenance.ParseCandidateFilter(v.GetString(KeyCandidateFilter))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyCandidateFilter, err)
	}
	cfg.CandidateFilter = filter

	if err := (types.Config{Backend: cfg.Backend}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", types.ErrValidation, KeyBackend, cfg.Backend, err)
	}
	return cfg, nil
}

// Store returns the store configuration for dataDir.
func (c *Config) Store(dataDir string) types.Config {
	return types.Config{Backend: c.Backend, DataDir: dataDir, BusyTimeout: c.BusyTimeout}
}

// WriteDefault writes the default config.yaml into dir unless one exists.
func WriteDefault(dir string) error {
	path := filepath.Join(dir, fileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultYAML), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
