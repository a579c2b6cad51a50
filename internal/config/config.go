// Package config loads the optional watchface configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvModels = "WATCHFACE_MODELS"
	EnvSchema = "WATCHFACE_SCHEMA"
	EnvConfig = "WATCHFACE_CONFIG"
)

// Config mirrors ~/.config/watchface/config.yaml. Pointer fields distinguish
// "not set" from zero values.
type Config struct {
	// Model is the catalog entry used when --model is not given.
	Model string `yaml:"model"`
	// ModelsFile is a YAML or JSON model catalog replacing the built-in one.
	ModelsFile string `yaml:"models_file"`
	// Schema is a JSON schema document replacing the built-in one.
	Schema string `yaml:"schema"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress  string `yaml:"server_address"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`

	// Image encoding defaults for the encode command.
	BitsPerPixel      *int64 `yaml:"bits_per_pixel"`
	PixelFormat       string `yaml:"pixel_format"`
	KeepSourceFormats *bool  `yaml:"keep_source_formats"`
	Fit               *bool  `yaml:"fit"`
}

// Path returns the config file location: $WATCHFACE_CONFIG, or
// watchface/config.yaml under the user config directory.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "watchface", "config.yaml")
}

// Load reads the config at path. A missing file yields a zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvModels)); v != "" {
		c.ModelsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSchema)); v != "" {
		c.Schema = v
	}
}
