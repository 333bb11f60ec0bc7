// Package config handles CODATS configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pradeepp3/CODATS/pkg/logging"
)

const (
	// DefaultConfigDir is the default configuration directory name.
	DefaultConfigDir = ".codats"
	// DefaultConfigFile is the default configuration file name.
	DefaultConfigFile = "config.yaml"
)

// Config holds the CODATS configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Scanner ScannerConfig  `yaml:"scanner"`
	Explain ExplainConfig  `yaml:"explain"`
	Logging logging.Config `yaml:"logging"`

	// ProjectPath is the project override file that was applied, if any.
	ProjectPath string `yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	HistorySize     int           `yaml:"history_size"`
}

// ScannerConfig holds scan engine settings.
type ScannerConfig struct {
	MaxCodeLength   int           `yaml:"max_code_length"`
	Timeout         time.Duration `yaml:"timeout"`
	DefaultLanguage string        `yaml:"default_language"`
	RedactSnippets  bool          `yaml:"redact_snippets"`
}

// ExplainConfig holds finding explanation settings.
type ExplainConfig struct {
	Provider    string        `yaml:"provider"` // "static" or "ollama"
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxFindings int           `yaml:"max_findings"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            5000,
			MaxUploadMB:     5,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			HistorySize:     1000,
		},
		Scanner: ScannerConfig{
			MaxCodeLength:   500000,
			Timeout:         10 * time.Second,
			DefaultLanguage: "javascript",
		},
		Explain: ExplainConfig{
			Provider:    "static",
			Endpoint:    "http://localhost:11434",
			Model:       "llama3.2",
			Timeout:     30 * time.Second,
			MaxFindings: 10,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads the configuration from the default location (~/.codats/config.yaml).
// If the config file doesn't exist, it returns the default configuration.
// If projectDir is provided, it also looks for project-level overrides.
func Load(projectDir string) (*Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", err)
	}

	return LoadFrom(configPath, projectDir)
}

// LoadFrom loads configuration from a specific path with optional project overrides.
func LoadFrom(configPath, projectDir string) (*Config, error) {
	cfg := DefaultConfig()

	expandedPath, err := ExpandPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	if _, err := os.Stat(expandedPath); err == nil {
		data, err := os.ReadFile(expandedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if projectDir != "" {
		if err := loadProjectOverrides(cfg, projectDir); err != nil {
			return nil, fmt.Errorf("failed to load project overrides: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProjectOverride represents the allowed project-level configuration overrides.
// Only scanner settings may be changed per project.
type ProjectOverride struct {
	Scanner *struct {
		MaxCodeLength   *int           `yaml:"max_code_length"`
		Timeout         *time.Duration `yaml:"timeout"`
		DefaultLanguage *string        `yaml:"default_language"`
		RedactSnippets  *bool          `yaml:"redact_snippets"`
	} `yaml:"scanner"`
}

// loadProjectOverrides merges <projectDir>/.codats/config.yaml into cfg.
func loadProjectOverrides(cfg *Config, projectDir string) error {
	projectConfigPath := filepath.Join(projectDir, DefaultConfigDir, DefaultConfigFile)

	if _, err := os.Stat(projectConfigPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(projectConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read project config: %w", err)
	}

	var override ProjectOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("failed to parse project config: %w", err)
	}
	cfg.ProjectPath = projectConfigPath

	if s := override.Scanner; s != nil {
		if s.MaxCodeLength != nil {
			cfg.Scanner.MaxCodeLength = *s.MaxCodeLength
		}
		if s.Timeout != nil {
			cfg.Scanner.Timeout = *s.Timeout
		}
		if s.DefaultLanguage != nil {
			cfg.Scanner.DefaultLanguage = *s.DefaultLanguage
		}
		if s.RedactSnippets != nil {
			cfg.Scanner.RedactSnippets = *s.RedactSnippets
		}
	}

	return nil
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, "server max_upload_mb must be at least 1")
	}
	if c.Server.HistorySize < 1 {
		errs = append(errs, "server history_size must be at least 1")
	}

	if c.Scanner.MaxCodeLength < 1 {
		errs = append(errs, "scanner max_code_length must be at least 1")
	}
	if c.Scanner.Timeout < 0 {
		errs = append(errs, "scanner timeout must not be negative")
	}
	if strings.TrimSpace(c.Scanner.DefaultLanguage) == "" {
		errs = append(errs, "scanner default_language is required")
	}

	switch c.Explain.Provider {
	case "static":
	case "ollama":
		if c.Explain.Endpoint == "" {
			errs = append(errs, "explain endpoint is required for the ollama provider")
		}
		if c.Explain.Model == "" {
			errs = append(errs, "explain model is required for the ollama provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid explain provider: %s (must be static or ollama)", c.Explain.Provider))
	}
	if c.Explain.MaxFindings < 1 {
		errs = append(errs, "explain max_findings must be at least 1")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("invalid logging level: %s", c.Logging.Level))
	}
	if f := c.Logging.Format; f != "" && f != "console" && f != "json" {
		errs = append(errs, fmt.Sprintf("invalid logging format: %s (must be console or json)", f))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// DefaultConfigDirPath returns the default configuration directory path.
func DefaultConfigDirPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// ExpandPath expands ~ to the user's home directory and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	return os.ExpandEnv(path), nil
}

const fileHeader = `# CODATS configuration
# Values omitted here fall back to built-in defaults.

`

// Initialize creates the default configuration directory and file if they don't exist.
// Returns the path to the config file and whether it was newly created.
func Initialize() (string, bool, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, fmt.Errorf("failed to determine config directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, false, nil
	}

	if err := DefaultConfig().SaveTo(configPath); err != nil {
		return "", false, err
	}

	return configPath, true, nil
}

// Save writes the configuration to the default location.
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return fmt.Errorf("failed to determine config path: %w", err)
	}

	return c.SaveTo(configPath)
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	expandedPath, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, []byte(fileHeader+string(data)), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
