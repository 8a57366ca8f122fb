package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data sources for rate tables and catalog.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Data        DataConfig
	ClientPrice ClientPriceConfig
	Batch       BatchConfig
}

type DataConfig struct {
	Source      string
	Dir         string
	DatabaseURL string
}

type ClientPriceConfig struct {
	Mode       string
	Percentage float64
}

type BatchConfig struct {
	Workers      int
	PickCheapest bool
}

// LoadDotEnv loads path into the process environment outside production,
// overriding variables already set. A missing file is not an error; the
// result reports whether anything was loaded.
func LoadDotEnv(path string) (bool, error) {
	if os.Getenv("ENVIRONMENT") == "production" {
		return false, nil
	}
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error reading %s: %w", path, err)
	}
	return true, nil
}

func Load() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_SOURCE", SourceFile)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("CLIENT_PRICE_MODE", "markup")
	viper.SetDefault("CLIENT_PRICE_PCT", 0)
	viper.SetDefault("BATCH_WORKERS", 4)
	viper.SetDefault("BATCH_PICK_CHEAPEST", false)

	viper.AutomaticEnv()

	cfg := &Config{
		Port:        strings.TrimPrefix(getEnvOrViper("PORT", "8080"), ":"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Data: DataConfig{
			Source:      strings.ToLower(getEnvOrViper("DATA_SOURCE", SourceFile)),
			Dir:         getEnvOrViper("DATA_DIR", "./data"),
			DatabaseURL: getEnvOrViper("DATABASE_URL", ""),
		},
		ClientPrice: ClientPriceConfig{
			Mode:       getEnvOrViper("CLIENT_PRICE_MODE", "markup"),
			Percentage: viper.GetFloat64("CLIENT_PRICE_PCT"),
		},
		Batch: BatchConfig{
			Workers:      viper.GetInt("BATCH_WORKERS"),
			PickCheapest: viper.GetBool("BATCH_PICK_CHEAPEST"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile:
		if strings.TrimSpace(c.Data.Dir) == "" {
			return fmt.Errorf("DATA_DIR is required when DATA_SOURCE=%s", SourceFile)
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Data.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.Data.Source)
	}
	if c.ClientPrice.Percentage < 0 {
		return fmt.Errorf("CLIENT_PRICE_PCT must not be negative, got %v", c.ClientPrice.Percentage)
	}
	if c.Batch.Workers < 1 {
		c.Batch.Workers = 1
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Environment == "production" }

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
