// Package config handles loading and managing markergen configuration
// from YAML files, .env files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/markergen/output"
)

// TagConfig controls the fiducial tag batch.
type TagConfig struct {
	OutputDir string `yaml:"output_dir"`
	Size      int    `yaml:"size"`
	Border    int    `yaml:"border"`
	Family    string `yaml:"family"`
}

// QRConfig controls the QR marker batch.
type QRConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// ServeConfig controls the HTTP server started by "markergen serve".
type ServeConfig struct {
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// Config holds all application configuration values.
type Config struct {
	Tags     TagConfig   `yaml:"tags"`
	QR       QRConfig    `yaml:"qr"`
	Format   string      `yaml:"format"`
	DataDir  string      `yaml:"data_dir"`
	Manifest bool        `yaml:"manifest"`
	Serve    ServeConfig `yaml:"serve"`
	LogLevel string      `yaml:"log_level"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config populated with the batch generator's
// hardcoded parameters.
func Defaults() *Config {
	return &Config{
		Tags: TagConfig{
			OutputDir: filepath.Join("assets", "markers"),
			Size:      400,
			Border:    2,
			Family:    "tag36h11",
		},
		QR: QRConfig{
			OutputDir: filepath.Join("assets", "markers-qr"),
		},
		Format:   string(output.PNG),
		DataDir:  ".markergen",
		Manifest: true,
		Serve: ServeConfig{
			Port:         8556,
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
			IdleTimeout:  Duration{120 * time.Second},
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Variables from envFiles (".env" if
// none are given) are added to the environment without replacing ones
// already set, then MARKERGEN_ variables override file and default values.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", f, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies MARKERGEN_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKERGEN_TAG_DIR"); v != "" {
		cfg.Tags.OutputDir = v
	}
	if v := os.Getenv("MARKERGEN_TAG_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tags.Size = n
		}
	}
	if v := os.Getenv("MARKERGEN_TAG_BORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tags.Border = n
		}
	}
	if v := os.Getenv("MARKERGEN_QR_DIR"); v != "" {
		cfg.QR.OutputDir = v
	}
	if v := os.Getenv("MARKERGEN_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("MARKERGEN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MARKERGEN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Serve.Port = p
		}
	}
	if v := os.Getenv("MARKERGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MARKERGEN_MANIFEST"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.Manifest = true
		case "false", "0", "no":
			cfg.Manifest = false
		}
	}
}

// Validate reports the first setting that cannot produce a marker.
func (c *Config) Validate() error {
	if c.Tags.Size <= 0 {
		return fmt.Errorf("tags.size must be positive, got %d", c.Tags.Size)
	}
	if c.Tags.Border < 0 {
		return fmt.Errorf("tags.border must not be negative, got %d", c.Tags.Border)
	}
	if c.Tags.OutputDir == "" {
		return errors.New("tags.output_dir is required")
	}
	if c.QR.OutputDir == "" {
		return errors.New("qr.output_dir is required")
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if c.Serve.Port <= 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port out of range: %d", c.Serve.Port)
	}
	return nil
}

// OutputFormat returns the parsed image format. Call Validate first.
func (c *Config) OutputFormat() output.Format {
	f, err := output.ParseFormat(c.Format)
	if err != nil {
		return output.PNG
	}
	return f
}

// ManifestPath returns the manifest database path, or "" when the
// manifest is disabled.
func (c *Config) ManifestPath() string {
	if !c.Manifest || c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "manifest.db")
}

// EnsureDataDir creates the DataDir if the manifest is enabled and the
// directory does not already exist.
func (c *Config) EnsureDataDir() error {
	if c.ManifestPath() == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}
