package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/glacierwatch/internal/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GOOGLE_API_KEY", "GEOPROC_API_KEY", "GLACIERWATCH_PLATFORM_ENDPOINT", "GLACIERWATCH_PLATFORM_SIMULATED", "GLACIERWATCH_ASSISTANT_PROVIDER", "GLACIERWATCH_DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
platform:
  simulated: true
assistant:
  api_key: "from-file"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != MemoryDatabase {
		t.Errorf("database_path should default to memory, got %q", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Velocity.CloudTolerance != 20 || cfg.Velocity.WidenedCloudTolerance != 40 {
		t.Errorf("unexpected cloud tolerances: %+v", cfg.Velocity)
	}
	if cfg.Velocity.ToleranceDays != 30 || cfg.Velocity.DefaultWindowSize != 256 {
		t.Errorf("unexpected velocity defaults: %+v", cfg.Velocity)
	}
	if cfg.Assistant.Provider != ProviderGemini || cfg.Assistant.Model != "gemini-1.5-flash" {
		t.Errorf("unexpected assistant defaults: %+v", cfg.Assistant)
	}
	if !cfg.Platform.Simulated {
		t.Error("platform.simulated should be read from the file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_dotEnvNextToConfig(t *testing.T) {
	clearEnv(t)
	_ = os.Unsetenv("GOOGLE_API_KEY")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GOOGLE_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("GOOGLE_API_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Assistant.APIKey != "from-dotenv" {
		t.Errorf("api key: got %q, want value from .env", cfg.Assistant.APIKey)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GLACIERWATCH_ASSISTANT_PROVIDER", "ollama")
	t.Setenv("GLACIERWATCH_PLATFORM_ENDPOINT", "https://geoproc.example.com")
	t.Setenv("GEOPROC_API_KEY", "pk")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Assistant.Provider != ProviderOllama || cfg.Assistant.Model != "llama3.2" {
		t.Errorf("assistant: got %+v", cfg.Assistant)
	}
	if cfg.Platform.Simulated || cfg.Platform.APIKey != "pk" {
		t.Errorf("platform: got %+v", cfg.Platform)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/sessions.db"
catalog:
  path: "./glaciers.yaml"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "sessions.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path: got %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "glaciers.yaml"); cfg.Catalog.Path != want {
		t.Errorf("catalog path: got %q, want %q", cfg.Catalog.Path, want)
	}
	if !cfg.Catalog.WatchOrDefault() {
		t.Error("catalog watch should default to true when a path is set")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestValidate_credentials(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing gemini key", func(c *Config) { c.Assistant.APIKey = "" }},
		{"no platform endpoint and not simulated", func(c *Config) {
			c.Platform.Simulated = false
			c.Platform.Endpoint = ""
		}},
		{"platform endpoint without key", func(c *Config) {
			c.Platform.Simulated = false
			c.Platform.Endpoint = "https://geoproc.example.com"
			c.Platform.APIKey = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Assistant.APIKey = "k"
			cfg.Platform.Simulated = true
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, models.ErrCredential) {
				t.Errorf("expected ErrCredential, got %v", err)
			}
		})
	}
}

func TestValidate_parameters(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Assistant.APIKey = "k"
	cfg.Platform.Simulated = true
	cfg.Velocity.WidenedCloudTolerance = 10
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "cloud_tolerance") {
		t.Errorf("expected tolerance error, got %v", err)
	}

	cfg = Default()
	cfg.Assistant.APIKey = "k"
	cfg.Platform.Simulated = true
	cfg.Climate.ArchiveEnd = "1970-01-01"
	if err := cfg.Validate(); err == nil {
		t.Error("expected coverage error")
	}

	cfg = Default()
	cfg.Assistant.Provider = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestLoad_simulatedFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GLACIERWATCH_PLATFORM_SIMULATED", "true")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("assistant:\n  api_key: k\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Platform.Simulated {
		t.Error("GLACIERWATCH_PLATFORM_SIMULATED should enable the simulated platform")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSave_roundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("port: got %d", loaded.Server.Port)
	}
}
