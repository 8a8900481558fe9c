package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Search   SearchConfig   `toml:"search"`
	Lists    ListsConfig    `toml:"lists"`
	Database DatabaseConfig `toml:"database"`
	Events   EventsConfig   `toml:"events"`
}

// CatalogConfig contains the remote movie catalog endpoint and credentials.
type CatalogConfig struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// SearchConfig tunes the aggregator.
type SearchConfig struct {
	MaxResults      int      `toml:"max_results"`
	ResultCap       int      `toml:"result_cap"`
	LetterBatchSize int      `toml:"letter_batch_size"`
	DebounceMS      int      `toml:"debounce_ms"`
	CommonTerms     []string `toml:"common_terms"`
}

// ListsConfig contains personal list rules.
type ListsConfig struct {
	WatchLaterMinAge int `toml:"watch_later_min_age"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// EventsConfig contains list-change notification settings.
type EventsConfig struct {
	PollIntervalMS  int `toml:"poll_interval_ms"`
	BroadcastRetain int `toml:"broadcast_retain"`
}

// envOverrides lists the settings that can come from the environment.
type envOverrides struct {
	APIKey  string `envconfig:"OMDB_API_KEY"`
	BaseURL string `envconfig:"OMDB_BASE_URL"`
	DBPath  string `envconfig:"FLIX_DB_PATH"`
	MinAge  int    `envconfig:"FLIX_MIN_AGE"`
}

// Timeout returns the catalog request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Debounce returns the quiet period before a suggestion request is issued.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// PollInterval returns how often cross-process transports are polled.
func (e EventsConfig) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables (and a .env file, if present) onto the config.
func ApplyEnv(config *Config) error {
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if env.APIKey != "" {
		config.Catalog.APIKey = env.APIKey
	}
	if env.BaseURL != "" {
		config.Catalog.BaseURL = env.BaseURL
	}
	if env.DBPath != "" {
		config.Database.Path = env.DBPath
	}
	if env.MinAge > 0 {
		config.Lists.WatchLaterMinAge = env.MinAge
	}
	return nil
}

// Validate reports configuration errors that make the catalog unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		return fmt.Errorf("%w: catalog api_key is empty (set OMDB_API_KEY)", ErrMissingCredentials)
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return fmt.Errorf("%w: catalog base_url is empty", ErrInvalidConfig)
	}
	if c.Search.LetterBatchSize <= 0 {
		return fmt.Errorf("%w: search.letter_batch_size must be positive", ErrInvalidConfig)
	}
	if c.Search.ResultCap <= 0 {
		return fmt.Errorf("%w: search.result_cap must be positive", ErrInvalidConfig)
	}
	return nil
}
