// Package config reads the harvester configuration from a yaml file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/watchharvest/watchharvest/internal/classify"
	"github.com/watchharvest/watchharvest/internal/fetch"
	"github.com/watchharvest/watchharvest/internal/harvest"
	"github.com/watchharvest/watchharvest/internal/output"
)

// Config defines the overall structure of the harvester configuration.
// Values will be taken from a config yml file or environment variables
// or both.
type Config struct {
	Fetcher   fetch.FetcherConfig `yaml:"fetcher"`
	Selectors classify.Selectors  `yaml:"selectors"`
	Harvest   harvest.Config      `yaml:"harvest"`
	Writer    output.WriterConfig `yaml:"writer"`
}

// LoadDotEnv loads variables from a .env file in the working directory and
// in the home directory. Missing files are ignored.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".watchharvest.env"))
	}
}

// NewConfig reads configPath. If the file does not exist the configuration
// consists of the defaults and the environment.
func NewConfig(configPath string) (*Config, error) {
	var config Config

	if _, err := os.Stat(configPath); configPath != "" && err == nil {
		if err := cleanenv.ReadConfig(configPath, &config); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		if configPath != "" && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to access config file %s: %w", configPath, err)
		}
		slog.Debug("no config file found, using defaults and environment", slog.String("path", configPath))
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	mode, err := harvest.ParseBoundaryMode(string(config.Harvest.BoundaryMode))
	if err != nil {
		return nil, err
	}
	config.Harvest.BoundaryMode = mode
	return &config, nil
}
