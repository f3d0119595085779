package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/isolation"
)

// DefaultEnvFile is read before the environment when E2E_ENV_FILE is unset
const DefaultEnvFile = ".env.e2e"

// Config holds all suite configuration
type Config struct {
	Database DatabaseConfig
	API      APIConfig
	Browser  BrowserConfig
	Seed     SeedConfig
	Log      LogConfig
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	Namespace      string
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
}

// APIConfig holds settings for calling the storefront backend directly
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	PathMarker string // URL path fragment that identifies backend API calls
}

// BrowserConfig holds Playwright settings
type BrowserConfig struct {
	BaseURL        string
	Headless       bool
	SlowMo         time.Duration
	DefaultTimeout time.Duration
	Lanes          []string
	Lane           string // lane of this process; empty means sequential
}

// SeedConfig holds fixture seeding settings
type SeedConfig struct {
	Tag             string
	FillerCustomers int
	FakerSeed       int64
	KeyTTL          time.Duration
	Cleanup         bool // teardown removes seeded records
	AllowReset      bool // destructive reset permitted
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load reads the optional dotenv file, then configuration from environment
// variables with sensible defaults. Variables already set in the environment
// win over the file.
func Load() (*Config, error) {
	envFile := getEnv("E2E_ENV_FILE", DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "8000"),
			Namespace:      getEnv("DB_NAMESPACE", "storefront"),
			Database:       getEnv("DB_DATABASE", "e2e"),
			User:           getEnv("DB_USER", "root"),
			Password:       getEnv("DB_PASSWORD", "root"),
			ConnectTimeout: getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		API: APIConfig{
			BaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
			Timeout:    getDurationEnv("API_TIMEOUT", 10*time.Second),
			PathMarker: getEnv("API_PATH_MARKER", "/api/"),
		},
		Browser: BrowserConfig{
			BaseURL:        getEnv("BASE_URL", "http://localhost:3000"),
			Headless:       getBoolEnv("BROWSER_HEADLESS", true),
			SlowMo:         getDurationEnv("BROWSER_SLOW_MO", 0),
			DefaultTimeout: getDurationEnv("BROWSER_TIMEOUT", 10*time.Second),
			Lanes:          getSliceEnv("E2E_LANES", []string{string(isolation.LaneDefault)}),
			Lane:           getEnv("E2E_LANE", ""),
		},
		Seed: SeedConfig{
			Tag:             getEnv("SEED_TAG", "e2e"),
			FillerCustomers: getIntEnv("SEED_FILLER_CUSTOMERS", 25),
			FakerSeed:       int64(getIntEnv("SEED_FAKER_SEED", 20240611)),
			KeyTTL:          getDurationEnv("SEED_KEY_TTL", 7*24*time.Hour),
			Cleanup:         getBoolEnv("E2E_CLEANUP", false),
			AllowReset:      getBoolEnv("E2E_RESET_DATABASE", false),
		},
		Log: LogConfig{
			Level:  getEnv("E2E_LOG_LEVEL", "info"),
			Format: getEnv("E2E_LOG_FORMAT", "text"),
		},
	}, nil
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}

	// URL validation
	if err := validateURL(c.API.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("API_BASE_URL: %w", err))
	}
	if err := validateURL(c.Browser.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("BASE_URL: %w", err))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API_TIMEOUT must be positive"))
	}

	// Lane validation
	if _, err := isolation.ParseLanes(c.Browser.Lanes); err != nil {
		errs = append(errs, fmt.Errorf("E2E_LANES: %w", err))
	}
	if _, err := isolation.ParseLane(c.Browser.Lane); err != nil {
		errs = append(errs, fmt.Errorf("E2E_LANE: %w", err))
	}
	if c.Browser.DefaultTimeout <= 0 {
		errs = append(errs, errors.New("BROWSER_TIMEOUT must be positive"))
	}

	// Seed validation
	if c.Seed.Tag == "" {
		errs = append(errs, errors.New("SEED_TAG is required"))
	}
	if c.Seed.FillerCustomers < 0 {
		errs = append(errs, errors.New("SEED_FILLER_CUSTOMERS must not be negative"))
	}
	if c.Seed.KeyTTL <= 0 {
		errs = append(errs, errors.New("SEED_KEY_TTL must be positive"))
	}

	// Log validation
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("E2E_LOG_LEVEL: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("E2E_LOG_FORMAT must be 'text' or 'json', got '%s'", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Connection returns the database layer's view of the settings
func (d DatabaseConfig) Connection() database.Config {
	return database.Config{
		Host:           d.Host,
		Port:           d.Port,
		User:           d.User,
		Password:       d.Password,
		Namespace:      d.Namespace,
		Database:       d.Database,
		ConnectTimeout: d.ConnectTimeout,
	}
}

// LaneSet returns the configured lanes to seed
func (b BrowserConfig) LaneSet() ([]isolation.Lane, error) {
	return isolation.ParseLanes(b.Lanes)
}

// CurrentLane returns the lane this process runs in
func (b BrowserConfig) CurrentLane() (isolation.Lane, error) {
	return isolation.ParseLane(b.Lane)
}

// SlogLevel parses the configured level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
