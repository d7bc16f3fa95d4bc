// Package config provides configuration loading and structs for the glacierwatch server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// DateLayout is the layout used for dates in config files and API requests.
const DateLayout = "2006-01-02"

// MemoryDatabase keeps session state in process memory only.
const MemoryDatabase = ":memory:"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Platform  PlatformConfig  `yaml:"platform"`
	Velocity  VelocityConfig  `yaml:"velocity"`
	Climate   ClimateConfig   `yaml:"climate"`
	Assistant AssistantConfig `yaml:"assistant"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the session database location. The default keeps sessions in memory
// so nothing outlives the running process.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// PlatformConfig holds the geospatial processing platform connection. Simulated selects the
// built-in deterministic platform and must be set explicitly; results are then flagged.
type PlatformConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Simulated      bool   `yaml:"simulated"`
}

// Timeout returns the request timeout as a duration.
func (p *PlatformConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// VelocityConfig holds scene selection and feature-tracking parameters.
type VelocityConfig struct {
	Collection            string  `yaml:"collection"`
	CloudProperty         string  `yaml:"cloud_property"`
	Band                  string  `yaml:"band"`
	MaskCollection        string  `yaml:"mask_collection"`
	ToleranceDays         int     `yaml:"tolerance_days"`
	CloudTolerance        float64 `yaml:"cloud_tolerance"`
	WidenedCloudTolerance float64 `yaml:"widened_cloud_tolerance"`
	MaxOffsetMeters       float64 `yaml:"max_offset_m"`
	ScaleMeters           float64 `yaml:"scale_m"`
	ArchiveStart          string  `yaml:"archive_start"`
	DefaultWindowSize     int     `yaml:"default_window_size"`
	MinWindowSize         int     `yaml:"min_window_size"`
	MaxWindowSize         int     `yaml:"max_window_size"`
}

// ArchiveStartDate parses ArchiveStart.
func (v *VelocityConfig) ArchiveStartDate() (time.Time, error) {
	return time.Parse(DateLayout, v.ArchiveStart)
}

// ClimateConfig holds the climate archive dataset and its coverage. Sampled months are
// cached for CacheTTLMinutes since platform tile URLs expire.
type ClimateConfig struct {
	Dataset         string  `yaml:"dataset"`
	MaskCollection  string  `yaml:"mask_collection"`
	ArchiveStart    string  `yaml:"archive_start"`
	ArchiveEnd      string  `yaml:"archive_end"`
	ScaleMeters     float64 `yaml:"scale_m"`
	CacheSize       int     `yaml:"cache_size"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"`
}

// CacheTTL returns the climate sample cache lifetime.
func (c *ClimateConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Coverage parses ArchiveStart and ArchiveEnd.
func (c *ClimateConfig) Coverage() (start, end time.Time, err error) {
	if start, err = time.Parse(DateLayout, c.ArchiveStart); err != nil {
		return start, end, fmt.Errorf("climate archive_start: %w", err)
	}
	if end, err = time.Parse(DateLayout, c.ArchiveEnd); err != nil {
		return start, end, fmt.Errorf("climate archive_end: %w", err)
	}
	return start, end, nil
}

// AssistantConfig holds the generative language backend settings.
type AssistantConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a *AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// CatalogConfig points at an optional glacier preset file.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch *bool  `yaml:"watch"`
}

// WatchOrDefault returns whether to hot-reload the catalog; defaults to true when a path is set.
func (c *CatalogConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return c.Path != ""
}

// Load reads .env files next to the config and in the working directory, parses the
// config file at path, applies defaults and environment overrides, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	configDir := filepath.Dir(path)
	loadDotEnv(filepath.Join(configDir, ".env"), ".env")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandDatabasePath(cfg.Storage.DatabasePath, configDir)
	if cfg.Catalog.Path != "" {
		cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	}
	return &cfg, nil
}

// Default returns a config built only from defaults, .env in the working directory and
// the environment. Used when no config file exists.
func Default() *Config {
	loadDotEnv(".env")
	var cfg Config
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment. API keys from the environment
// only fill values the file left empty.
func ApplyEnv(cfg *Config) {
	if cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Platform.APIKey == "" {
		cfg.Platform.APIKey = os.Getenv("GEOPROC_API_KEY")
	}
	if v := os.Getenv("GLACIERWATCH_PLATFORM_ENDPOINT"); v != "" {
		cfg.Platform.Endpoint = v
	}
	if v := os.Getenv("GLACIERWATCH_PLATFORM_SIMULATED"); v == "1" || strings.EqualFold(v, "true") {
		cfg.Platform.Simulated = true
	}
	if v := os.Getenv("GLACIERWATCH_ASSISTANT_PROVIDER"); v != "" {
		cfg.Assistant.Provider = v
	}
	if v := os.Getenv("GLACIERWATCH_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		cfg.Debug = true
	}
}

// Validate checks credentials and parameter sanity. Missing credentials are reported as
// models.ErrCredential so callers can fail at startup.
func (c *Config) Validate() error {
	switch c.Assistant.Provider {
	case ProviderGemini:
		if c.Assistant.APIKey == "" {
			return fmt.Errorf("%w: GOOGLE_API_KEY not found in environment or .env file", models.ErrCredential)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown assistant provider %q", c.Assistant.Provider)
	}
	if !c.Platform.Simulated {
		if c.Platform.Endpoint == "" {
			return fmt.Errorf("%w: no processing platform endpoint configured (set platform.endpoint, or platform.simulated for offline use)", models.ErrCredential)
		}
		if c.Platform.APIKey == "" {
			return fmt.Errorf("%w: GEOPROC_API_KEY not found for platform %s", models.ErrCredential, c.Platform.Endpoint)
		}
	}

	v := c.Velocity
	if v.CloudTolerance <= 0 || v.WidenedCloudTolerance < v.CloudTolerance {
		return errors.New("velocity: widened_cloud_tolerance must be >= cloud_tolerance > 0")
	}
	if v.MinWindowSize <= 0 || v.MinWindowSize > v.MaxWindowSize ||
		v.DefaultWindowSize < v.MinWindowSize || v.DefaultWindowSize > v.MaxWindowSize {
		return errors.New("velocity: window sizes must satisfy 0 < min <= default <= max")
	}
	if _, err := v.ArchiveStartDate(); err != nil {
		return fmt.Errorf("velocity archive_start: %w", err)
	}
	start, end, err := c.Climate.Coverage()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return errors.New("climate: archive_start must precede archive_end")
	}
	return nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func expandDatabasePath(path, configDir string) string {
	if path == MemoryDatabase || strings.HasPrefix(path, "file:") {
		return path
	}
	return expandPath(path, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
