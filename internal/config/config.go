package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the queue kiosk client
type Config struct {
	// Local control/status server
	Port string `envconfig:"PORT" default:"8090"`

	// Kiosk mode decides which surfaces this process hosts:
	// "display" (public board), "console" (staff console) or "both".
	Mode string `envconfig:"KIOSK_MODE" default:"display"`

	// Admission backend REST API
	APIBaseURL string `envconfig:"API_BASE_URL" required:"true"` // e.g. http://localhost:8000/api
	APITimeout int    `envconfig:"API_TIMEOUT" default:"15"`     // seconds per request

	// Shared key-value store (cross-surface announcement channel, session,
	// saved ticket). All kiosk processes on one machine point at the same path.
	StorePath     string `envconfig:"STORE_PATH" default:"./data/kiosk"`
	StoreInMemory bool   `envconfig:"STORE_IN_MEMORY" default:"false"` // tests and throwaway kiosks

	// Polling cadences
	QueuePollInterval   time.Duration `envconfig:"QUEUE_POLL_INTERVAL" default:"10s"`  // actively worked queue views
	StatusPollInterval  time.Duration `envconfig:"STATUS_POLL_INTERVAL" default:"30s"` // slow-changing employee status
	DisplayPollInterval time.Duration `envconfig:"DISPLAY_POLL_INTERVAL" default:"5s"` // public board
	SearchDebounce      time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`    // quiescence window for filter changes
	StatusDebounce      time.Duration `envconfig:"STATUS_DEBOUNCE" default:"100ms"`    // playback-status double-fire absorption

	// Staff console auto-advance delays
	AutoCallDelay     time.Duration `envconfig:"AUTO_CALL_DELAY" default:"500ms"`  // after start-work / resume
	CompleteCallDelay time.Duration `envconfig:"COMPLETE_CALL_DELAY" default:"1s"` // after complete-current

	// Announcement channel
	DedupHistory int `envconfig:"DEDUP_HISTORY" default:"10"` // remembered audio IDs per subscriber

	// Audio playback: command that reads MP3 from stdin
	PlayerCommand string `envconfig:"PLAYER_COMMAND" default:"mpg123 -q -"`

	// Default announcement/UI language
	Language string `envconfig:"LANGUAGE" default:"ru"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)
	LogFile        string `envconfig:"LOG_FILE" default:""`        // Optional rolling log file
	LogMaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.Mode {
	case "display", "console", "both":
	default:
		return fmt.Errorf("invalid KIOSK_MODE %q: must be display, console or both", c.Mode)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
