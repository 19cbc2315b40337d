package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/git-pkgs/packument/client"
)

const (
	// AppName is the application name. It names the config directory and
	// the config file.
	AppName = "packument"

	envPrefix = "PACKUMENT"
)

// Config holds the settings shared by all commands.
type Config struct {
	Registry    string
	Token       string
	Timeout     time.Duration
	MaxRetries  int
	Concurrency int
	LogLevel    string
}

// DefaultConfig returns the settings used when neither flags, environment
// nor a config file say otherwise.
func DefaultConfig() Config {
	return Config{
		Registry:    client.DefaultRegistry,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Concurrency: 15,
		LogLevel:    "warn",
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/packument, defaulting to
// ~/.config/packument.
func ConfigDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

// bindFlags registers the persistent flags that mirror config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	d := DefaultConfig()
	flags.String("registry", d.Registry, "registry base URL")
	flags.Duration("timeout", d.Timeout, "HTTP request timeout")
	flags.Int("max-retries", d.MaxRetries, "retries for rate-limited and failed requests")
	flags.Int("concurrency", d.Concurrency, "parallel requests for bulk fetches")
	flags.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")

	for key, name := range map[string]string{
		"registry":    "registry",
		"timeout":     "timeout",
		"max_retries": "max-retries",
		"concurrency": "concurrency",
		"log_level":   "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// loadConfig resolves the configuration. Precedence, highest first: flags,
// PACKUMENT_* environment variables, the config file, defaults. A missing
// config file is only an error when cfgFile names it explicitly.
func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	d := DefaultConfig()
	v.SetDefault("registry", d.Registry)
	v.SetDefault("token", d.Token)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName(AppName)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Registry:    strings.TrimSuffix(v.GetString("registry"), "/"),
		Token:       v.GetString("token"),
		Timeout:     v.GetDuration("timeout"),
		MaxRetries:  v.GetInt("max_retries"),
		Concurrency: v.GetInt("concurrency"),
		LogLevel:    v.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Registry == "":
		return errors.New("registry must not be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	case c.Concurrency < 0:
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// newLogger returns a logger writing to w at the configured level.
func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: AppName,
		Level:  lvl,
	})
}
