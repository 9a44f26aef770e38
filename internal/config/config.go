// Package config provides YAML-based configuration for the analyzer console.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/circom-analyzer/frontend/internal/models"
)

// BaseURLEnv is the only environment variable the console reads.
const BaseURLEnv = "API_URL"

// DefaultBaseURL is the analysis service address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000"

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Analysis  AnalysisConfig  `koanf:"analysis" yaml:"analysis"`
	Downloads DownloadsConfig `koanf:"downloads" yaml:"downloads"`
	Advanced  AdvancedConfig  `koanf:"advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `koanf:"port" yaml:"port"`
	BindAddress  string `koanf:"bind_address" yaml:"bind_address"`
	EnableCORS   bool   `koanf:"enable_cors" yaml:"enable_cors"`
	AllowOrigins string `koanf:"allow_origins" yaml:"allow_origins"`
	ReadTimeout  int    `koanf:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `koanf:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeout  int    `koanf:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
	BodyLimit    string `koanf:"body_limit" yaml:"body_limit"`
}

// AnalysisConfig describes how to reach the analysis service.
type AnalysisConfig struct {
	BaseURL        string `koanf:"base_url" yaml:"base_url"`
	DefaultFormat  string `koanf:"default_format" yaml:"default_format"`
	RequestTimeout int    `koanf:"request_timeout_seconds" yaml:"request_timeout_seconds"` // 0 disables the timeout
}

// DownloadsConfig contains settings for saved reports
type DownloadsConfig struct {
	Directory string `koanf:"directory" yaml:"directory"`
}

// AdvancedConfig contains tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `koanf:"enable_request_logging" yaml:"enable_request_logging"`
	EnableCompression    bool `koanf:"enable_compression" yaml:"enable_compression"`
	CompressionLevel     int  `koanf:"compression_level" yaml:"compression_level"` // 1-9
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "127.0.0.1",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 0,
			IdleTimeout:  120,
			BodyLimit:    "32M",
		},
		Analysis: AnalysisConfig{
			BaseURL:        DefaultBaseURL,
			DefaultFormat:  string(models.DefaultOutputFormat),
			RequestTimeout: 0,
		},
		Downloads: DownloadsConfig{
			Directory: "./downloads",
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults there
// first if the file does not exist. A .env file beside the config file and
// the API_URL environment variable are applied on top.
func LoadConfig(configPath string) (*AppConfig, error) {
	configDir := filepath.Dir(configPath)

	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] Warning: could not load .env: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := DefaultConfig().Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		log.Printf("[Config] Wrote default configuration to %s", configPath)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := k.Load(env.Provider(BaseURLEnv, ".", func(s string) string {
		if s != BaseURLEnv {
			return ""
		}
		return "analysis.base_url"
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	config := DefaultConfig()
	if err := k.Unmarshal("", config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	config.resolvePaths(configDir)

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Circom Analyzer Console configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *AppConfig) normalize() error {
	c.Analysis.BaseURL = strings.TrimRight(strings.TrimSpace(c.Analysis.BaseURL), "/")
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = DefaultBaseURL
	}

	if c.Analysis.DefaultFormat == "" {
		c.Analysis.DefaultFormat = string(models.DefaultOutputFormat)
	}
	if _, err := models.ParseOutputFormat(c.Analysis.DefaultFormat); err != nil {
		return fmt.Errorf("invalid analysis.default_format: %w", err)
	}

	if c.Advanced.CompressionLevel < 1 || c.Advanced.CompressionLevel > 9 {
		c.Advanced.CompressionLevel = 5
	}

	if c.Analysis.RequestTimeout < 0 {
		return fmt.Errorf("invalid analysis.request_timeout_seconds: %d", c.Analysis.RequestTimeout)
	}

	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Downloads.Directory) {
		c.Downloads.Directory = filepath.Join(configDir, c.Downloads.Directory)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetDefaultFormat returns the configured initial output format.
func (c *AppConfig) GetDefaultFormat() models.OutputFormat {
	f, err := models.ParseOutputFormat(c.Analysis.DefaultFormat)
	if err != nil {
		return models.DefaultOutputFormat
	}
	return f
}

// GetRequestTimeout returns the analysis request timeout, zero meaning none.
func (c *AppConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.Analysis.RequestTimeout) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Downloads.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Downloads.Directory, err)
	}
	return nil
}
