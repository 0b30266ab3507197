// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type ResultsConfig struct {
	ArchiveURL      string `yaml:"archive_url"`
	Origin          string `yaml:"origin"`
	StartYear       int    `yaml:"start_year"`
	RequestDelayStr string `yaml:"request_delay"`
	RequestDelay    time.Duration
}

type CacheConfig struct {
	File string `yaml:"file"`
}

type Config struct {
	Server    ServerConfig  `yaml:"server"`
	Results   ResultsConfig `yaml:"results"`
	Cache     CacheConfig   `yaml:"cache"`
	Anonymize bool          `yaml:"anonymize"`
}

var AppConfig Config

// LoadConfig reads the YAML configuration file, then applies environment
// overrides (SKI_SERVER_PORT, SKI_ARCHIVE_URL, SKI_CACHE_FILE,
// SKI_ANONYMIZE). A local .env file is loaded first when present.
func LoadConfig(configPath string) error {
	// Missing .env is fine; environment variables may come from anywhere.
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(file, &AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if port := os.Getenv("SKI_SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
	}
	if url := os.Getenv("SKI_ARCHIVE_URL"); url != "" {
		AppConfig.Results.ArchiveURL = url
	}
	if cacheFile := os.Getenv("SKI_CACHE_FILE"); cacheFile != "" {
		AppConfig.Cache.File = cacheFile
	}
	if anonymize := os.Getenv("SKI_ANONYMIZE"); anonymize != "" {
		value, err := strconv.ParseBool(anonymize)
		if err != nil {
			return fmt.Errorf("failed to parse SKI_ANONYMIZE: %w", err)
		}
		AppConfig.Anonymize = value
	}

	applyDefaults()

	if AppConfig.Results.RequestDelayStr != "" {
		AppConfig.Results.RequestDelay, err = time.ParseDuration(AppConfig.Results.RequestDelayStr)
		if err != nil {
			return fmt.Errorf("failed to parse request_delay: %w", err)
		}
	} else {
		AppConfig.Results.RequestDelay = 150 * time.Millisecond
	}

	return nil
}

func applyDefaults() {
	if AppConfig.Server.Port == "" {
		AppConfig.Server.Port = "8080"
	}
	if AppConfig.Results.ArchiveURL == "" {
		AppConfig.Results.ArchiveURL = "https://www.finlandiahiihto.fi/Tulokset/Tulosarkisto"
	}
	if AppConfig.Results.Origin == "" {
		AppConfig.Results.Origin = "https://www.finlandiahiihto.fi"
	}
	if AppConfig.Results.StartYear == 0 {
		AppConfig.Results.StartYear = 1974
	}
	if AppConfig.Cache.File == "" {
		AppConfig.Cache.File = "data.json"
	}
}
