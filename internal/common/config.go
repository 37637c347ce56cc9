package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// BackendMode selects which content-generation backend handles requests.
type BackendMode string

const (
	// BackendModeLocal always uses the local NotebookLM server.
	BackendModeLocal BackendMode = "local"
	// BackendModeCloud always uses the Gemini API.
	BackendModeCloud BackendMode = "cloud"
	// BackendModeAuto prefers the local server when healthy, falling back to Gemini.
	BackendModeAuto BackendMode = "auto"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Backend     BackendConfig   `toml:"backend"`
	Notebook    NotebookConfig  `toml:"notebook"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Processor   ProcessorConfig `toml:"processor"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// BackendConfig selects the default generation backend. The persisted settings
// store overrides this once a user has changed the mode at runtime.
type BackendConfig struct {
	Mode BackendMode `toml:"mode"` // "local", "cloud", or "auto" (default: "auto")
}

// NotebookConfig contains connection settings for the local NotebookLM MCP server
type NotebookConfig struct {
	Endpoint      string `toml:"endpoint"`       // MCP endpoint, e.g. "http://localhost:3456/mcp"
	HealthURL     string `toml:"health_url"`     // Unauthenticated health endpoint
	HealthTimeout string `toml:"health_timeout"` // Health probe timeout as duration string (default: "5s")
	InitTimeout   string `toml:"init_timeout"`   // Session handshake timeout (default: "10s")
	CallTimeout   string `toml:"call_timeout"`   // Per tool-call timeout (default: "120s")
}

// GeminiConfig contains Google Gemini API configuration for the cloud backend
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for generation calls (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ProcessorConfig controls the queue processor's batching and polling behavior
type ProcessorConfig struct {
	MaxBatchSize     int    `toml:"max_batch_size"`     // Max pending items fetched per cycle (default: 5)
	StaleAfter       string `toml:"stale_after"`        // Processing items older than this are recovered (default: "10m")
	PollInterval     string `toml:"poll_interval"`      // Studio status poll interval (default: "10s")
	CycleInterval    string `toml:"cycle_interval"`     // Watch-mode delay between cycles (default: "30s")
	PodcastPollLimit int    `toml:"podcast_poll_limit"` // Max status polls for audio artifacts (default: 90)
	StudioPollLimit  int    `toml:"studio_poll_limit"`  // Max status polls for slides/infographics (default: 30)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in studiogen.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Backend: BackendConfig{
			Mode: BackendModeAuto,
		},
		Notebook: NotebookConfig{
			Endpoint:      "http://localhost:3456/mcp",
			HealthURL:     "http://localhost:3456/health",
			HealthTimeout: "5s",
			InitTimeout:   "10s",
			CallTimeout:   "120s",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-2.0-flash",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.7,
		},
		Processor: ProcessorConfig{
			MaxBatchSize:     5,
			StaleAfter:       "10m",
			PollInterval:     "10s",
			CycleInterval:    "30s",
			PodcastPollLimit: 90, // Audio synthesis is the slowest artifact
			StudioPollLimit:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STUDIOGEN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("STUDIOGEN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STUDIOGEN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("STUDIOGEN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if mode := os.Getenv("STUDIOGEN_BACKEND_MODE"); mode != "" {
		config.Backend.Mode = BackendMode(mode)
	}

	if endpoint := os.Getenv("STUDIOGEN_NOTEBOOK_ENDPOINT"); endpoint != "" {
		config.Notebook.Endpoint = endpoint
	}
	if healthURL := os.Getenv("STUDIOGEN_NOTEBOOK_HEALTH_URL"); healthURL != "" {
		config.Notebook.HealthURL = healthURL
	}

	if apiKey := os.Getenv("STUDIOGEN_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("STUDIOGEN_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if level := os.Getenv("STUDIOGEN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendModeLocal, BackendModeCloud, BackendModeAuto:
	default:
		return fmt.Errorf("invalid backend mode %q (expected local, cloud, or auto)", c.Backend.Mode)
	}

	for name, value := range map[string]string{
		"notebook.health_timeout": c.Notebook.HealthTimeout,
		"notebook.init_timeout":   c.Notebook.InitTimeout,
		"notebook.call_timeout":   c.Notebook.CallTimeout,
		"gemini.timeout":          c.Gemini.Timeout,
		"gemini.rate_limit":       c.Gemini.RateLimit,
		"processor.stale_after":   c.Processor.StaleAfter,
		"processor.poll_interval": c.Processor.PollInterval,
		"processor.cycle_interval": c.Processor.CycleInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %q: %w", name, value, err)
		}
	}

	return nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Duration parses a duration config value, falling back to the given default
// when the value is empty or malformed. Validate catches malformed values at
// startup; the fallback keeps zero-value configs usable in tests.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
