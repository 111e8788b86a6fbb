// ABOUTME: Configuration loader for the admin client
// ABOUTME: Loads settings from an optional .env file and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/markalston/trainer-admin/internal/storage"
)

const (
	EnvAPIURL   = "TRAINER_ADMIN_API_URL"
	EnvTimeout  = "TRAINER_ADMIN_TIMEOUT"
	EnvStore    = "TRAINER_ADMIN_STORE"
	EnvStateDir = "TRAINER_ADMIN_STATE_DIR"

	DefaultAPIURL  = "http://127.0.0.1:8000/api"
	DefaultTimeout = 30
)

type Config struct {
	APIURL   string
	Timeout  time.Duration
	Store    storage.Kind
	StateDir string
}

// Load reads .env from the working directory if present, then the environment
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	timeout, err := getEnvInt(EnvTimeout, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	if timeout < 1 || timeout > 600 {
		return nil, fmt.Errorf("%s must be between 1 and 600, got %d", EnvTimeout, timeout)
	}

	store, err := storage.ParseKind(getEnv(EnvStore, string(storage.KindFile)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvStore, err)
	}

	cfg := &Config{
		APIURL:   getEnv(EnvAPIURL, DefaultAPIURL),
		Timeout:  time.Duration(timeout) * time.Second,
		Store:    store,
		StateDir: getEnv(EnvStateDir, storage.DefaultDir()),
	}

	if err := ValidateURL(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvAPIURL, err)
	}

	return cfg, nil
}

// ValidateURL checks that raw is an absolute http or https URL
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// loadDotEnv sets variables from path without overriding ones already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number of seconds, got %q", key, value)
	}
	return intVal, nil
}
