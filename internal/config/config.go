package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/boelens/internal/alerts"
)

type Config struct {
	Port string

	// BOE backend connection
	BackendURL    string
	BackendAPIKey string

	// Local documents, used instead of the backend when set
	DocumentsDir string

	// Auth
	BoelensAPIKey string

	// Viewer preferences database
	DBPath string

	// Claude summaries
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Session and job state
	SessionTTL time.Duration
	JobTTL     time.Duration

	// Optional YAML file
	ConfigFile string
	File       File
}

// File is the optional YAML configuration.
type File struct {
	Categories []alerts.Category `yaml:"categories"`
	Viewer     ViewerFile        `yaml:"viewer"`
}

type ViewerFile struct {
	// RevealOnZero shows the result indicator when a search finds nothing.
	RevealOnZero bool `yaml:"reveal_on_zero"`
}

func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		BackendURL:    envOr("BACKEND_URL", "http://localhost:8000"),
		BackendAPIKey: os.Getenv("BACKEND_API_KEY"),

		DocumentsDir: os.Getenv("DOCUMENTS_DIR"),

		BoelensAPIKey: os.Getenv("BOELENS_API_KEY"),

		DBPath: envOr("DB_PATH", "boelens.db"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		SessionTTL: envDuration("SESSION_TTL", 2*time.Hour),
		JobTTL:     envDuration("JOB_TTL", 1*time.Hour),

		ConfigFile: os.Getenv("CONFIG_FILE"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg.File = f
	}
	return cfg, nil
}

// LoadFile reads the YAML configuration file at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes YAML configuration.
func ParseFile(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config file: %w", err)
	}
	for i, c := range f.Categories {
		if c.Name == "" {
			return File{}, fmt.Errorf("category %d has no name", i)
		}
	}
	return f, nil
}

func (c Config) Validate() error {
	if c.BoelensAPIKey == "" {
		return fmt.Errorf("BOELENS_API_KEY is required")
	}
	if c.DocumentsDir == "" && c.BackendAPIKey == "" {
		return fmt.Errorf("BACKEND_API_KEY is required unless DOCUMENTS_DIR is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
