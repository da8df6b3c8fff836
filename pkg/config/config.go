// Package config loads guils settings from flags, GUILS_* environment variables and YAML files.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

const (
	EnvPrefix       = "GUILS"
	LocalConfigFile = ".guils.yaml"
)

// Config holds all configuration options for guils.
type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	LanguageID  string `mapstructure:"language_id"`
	Shards      int    `mapstructure:"shards"`
	Concurrency int    `mapstructure:"concurrency"`
	LogToClient bool   `mapstructure:"log_to_client"`
}

func Defaults() Config {
	return Config{
		LogLevel:    "info",
		LanguageID:  "gui",
		Shards:      32,
		Concurrency: runtime.NumCPU(),
		LogToClient: true,
	}
}

// New returns a viper instance with the defaults, the environment binding and the file lookup
// configured. An empty file means .guils.yaml in the working directory, then
// ~/.config/guils/config.yaml.
func New(file string) *viper.Viper {
	defaults := Defaults()

	v := viper.New()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("language_id", defaults.LanguageID)
	v.SetDefault("shards", defaults.Shards)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("log_to_client", defaults.LogToClient)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else if _, err := os.Stat(LocalConfigFile); err == nil {
		v.SetConfigFile(LocalConfigFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "guils"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	return v
}

// Load reads the config file, if any, and decodes the merged settings. A missing file is only an
// error when it was named explicitly.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Shards < 1 {
		return errors.Errorf("shards must be at least 1, got %d", c.Shards)
	}
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Errorf("parsing log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
