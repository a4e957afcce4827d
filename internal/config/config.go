package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"` // 384 or 768
	Providers  []string `json:"providers"`  // "cloud", "local", "mock"; tried in order
}

// RegistryConfig holds external patent registry settings
type RegistryConfig struct {
	Mode     string `json:"mode"` // "espacenet" or "mock"
	BaseURL  string `json:"base_url,omitempty"`
	TTLHours int    `json:"ttl_hours"`
}

// SearchConfig holds default search parameters
type SearchConfig struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"`
}

// Config represents the application configuration
type Config struct {
	DatabasePath string          `json:"database_path"`
	Embedding    EmbeddingConfig `json:"embedding"`
	Registry     RegistryConfig  `json:"registry"`
	Search       SearchConfig    `json:"search"`
	Workers      int             `json:"workers"`
	MaxAttempts  int             `json:"max_attempts"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	providers := []string{"local"}
	if os.Getenv("OPENAI_API_KEY") != "" {
		providers = []string{"cloud", "local"}
	}

	return &Config{
		DatabasePath: "~/.patvec/patents.db",
		Embedding: EmbeddingConfig{
			Model:      "all-minilm",
			Dimensions: 384,
			Providers:  providers,
		},
		Registry: RegistryConfig{
			Mode:     "espacenet",
			TTLHours: 7 * 24,
		},
		Search: SearchConfig{
			TopK:      5,
			Threshold: 0.5,
		},
		Workers:     4,
		MaxAttempts: 3,
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".patvec"), nil
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save saves configuration to the default config file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// GetDatabasePath returns the expanded database path
func (c *Config) GetDatabasePath() (string, error) {
	return ExpandPath(c.DatabasePath)
}
