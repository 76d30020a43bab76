// Package config loads the application configuration from configs/config.yaml
// with CIA_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Rates      RatesConfig      `mapstructure:"rates"`
	Candidates CandidatesConfig `mapstructure:"candidates"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
	SeedPath   string `mapstructure:"seed_path"`
}

type ScoringConfig struct {
	WeightsPath string `mapstructure:"weights_path"`
}

type RatesConfig struct {
	Path string `mapstructure:"path"`
}

type CandidatesConfig struct {
	// Cap bounds the candidate set fetched per request.
	Cap int `mapstructure:"cap"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the config file at path (optional) and applies env overrides.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("storage.sqlite_path", "data/listings.db")
	v.SetDefault("storage.seed_path", "data/listings.json")
	v.SetDefault("scoring.weights_path", "configs/weights.json")
	v.SetDefault("rates.path", "configs/rates.json")
	v.SetDefault("candidates.cap", 500)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("CIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing file keeps the defaults; anything else is fatal.
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
