// Package config loads deepler settings from defaults, a config file, a .env
// file, DEEPL_* environment variables and bound command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/deepler/internal/deepl"
)

// EnvPrefix is prepended to every environment variable, e.g. DEEPL_AUTH_KEY.
const EnvPrefix = "DEEPL"

type Config struct {
	AuthKey     string        `mapstructure:"auth_key"`
	ServerURL   string        `mapstructure:"server_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	JSONBodies  bool          `mapstructure:"json_bodies"`
	DBPath      string        `mapstructure:"db_path"`
	LogLevel    string        `mapstructure:"log_level"`
	Environment string        `mapstructure:"environment"`
	Concurrency int           `mapstructure:"concurrency"`
	Poll        PollConfig    `mapstructure:"poll"`
}

// PollConfig is the document status polling schedule.
type PollConfig struct {
	Initial time.Duration `mapstructure:"initial"`
	Max     time.Duration `mapstructure:"max"`
	Factor  float64       `mapstructure:"factor"`
}

// SetDefaults registers the default of every key on v. Keys must be known to
// viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("auth_key", "")
	v.SetDefault("server_url", "")
	v.SetDefault("user_agent", deepl.DefaultUserAgent)
	v.SetDefault("timeout", deepl.DefaultTimeout)
	v.SetDefault("json_bodies", false)
	v.SetDefault("db_path", "deepler.db")
	v.SetDefault("log_level", "warn")
	v.SetDefault("environment", "local")
	v.SetDefault("concurrency", 4)
	v.SetDefault("poll.initial", time.Second)
	v.SetDefault("poll.max", 30*time.Second)
	v.SetDefault("poll.factor", 1.5)
}

// Load reads configuration into a validated Config. configFile may be empty,
// in which case $HOME/.deepler.yaml is used when present. envFile names a
// dotenv file; a missing file is not an error. Variables already set in the
// process environment win over the dotenv file.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".deepler")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = deepl.DefaultBaseURL(cfg.AuthKey)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that do not depend on the command being run.
// The auth key is checked by RequireAuthKey, since some commands run offline.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("DEEPL_TIMEOUT must be > 0")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("DEEPL_CONCURRENCY must be >= 1")
	}
	if c.Poll.Initial <= 0 {
		return fmt.Errorf("DEEPL_POLL_INITIAL must be > 0")
	}
	if c.Poll.Max < c.Poll.Initial {
		return fmt.Errorf("DEEPL_POLL_MAX (%s) cannot be less than DEEPL_POLL_INITIAL (%s)", c.Poll.Max, c.Poll.Initial)
	}
	if c.Poll.Factor < 1 {
		return fmt.Errorf("DEEPL_POLL_FACTOR must be >= 1")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("DEEPL_SERVER_URL must be an http(s) URL, got %q", c.ServerURL)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DEEPL_DB_PATH is required")
	}
	return nil
}

// RequireAuthKey fails when no key is configured.
func (c *Config) RequireAuthKey() error {
	if strings.TrimSpace(c.AuthKey) == "" {
		return fmt.Errorf("DEEPL_AUTH_KEY is required")
	}
	return nil
}
