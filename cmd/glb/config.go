package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the glb configuration file (~/.config/glb/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Strict    *bool  `yaml:"strict"`

	// Server
	ServerAddress  string   `yaml:"server_address"`
	MaxUploadBytes *int64   `yaml:"max_upload_bytes"`
	RateLimit      *float64 `yaml:"rate_limit"`
	RateBurst      *int64   `yaml:"rate_burst"`

	// Extract
	OutputDir string `yaml:"output_dir"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "glb", "config.yaml")
}

// applyGlobalConfig applies config file defaults to the root flags when
// they were not explicitly set.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Strict != nil && !c.IsSet("strict") {
		strict = *cfg.Strict
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxUpload *int64, rateLimit *float64, rateBurst *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload-bytes") {
		*maxUpload = *cfg.MaxUploadBytes
	}
	if cfg.RateLimit != nil && !c.IsSet("rate-limit") {
		*rateLimit = *cfg.RateLimit
	}
	if cfg.RateBurst != nil && !c.IsSet("rate-burst") {
		*rateBurst = *cfg.RateBurst
	}
}

// applyExtractConfig applies config file defaults to extract command variables.
func applyExtractConfig(c *cli.Command, cfg Config, outDir *string) {
	if cfg.OutputDir != "" && !c.IsSet("output") {
		*outDir = cfg.OutputDir
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
