package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Download.ConcurrentDownloads != 3 {
		t.Errorf("Expected default concurrent downloads to be 3, got %d", config.Download.ConcurrentDownloads)
	}

	if config.HTTP.Timeout != 30*time.Second {
		t.Errorf("Expected default HTTP timeout to be 30s, got %v", config.HTTP.Timeout)
	}

	if config.Output.DataDirectory != "./data" {
		t.Errorf("Expected default data directory to be ./data, got %s", config.Output.DataDirectory)
	}

	if config.WakaTime.BarSize != 21 {
		t.Errorf("Expected default bar size to be 21, got %d", config.WakaTime.BarSize)
	}

	if len(config.NeoDB.Categories) != 4 {
		t.Errorf("Expected 4 default neodb categories, got %d", len(config.NeoDB.Categories))
	}

	if len(config.Hitokoto.Endpoints) == 0 {
		t.Error("Expected default hitokoto endpoints to be set")
	}

	// No source is enabled out of the box, so defaults must validate.
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PROFILESYNC_NEODB_ENABLED", "true")
	os.Setenv("PROFILESYNC_NEODB_TOKEN", "test-token")
	os.Setenv("PROFILESYNC_LASTFM_API_KEY", "test-api-key")
	os.Setenv("PROFILESYNC_DATA_DIR", "/tmp/test-data")
	os.Setenv("PROFILESYNC_CONCURRENT_DOWNLOADS", "5")
	os.Setenv("PROFILESYNC_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("PROFILESYNC_NEODB_ENABLED")
		os.Unsetenv("PROFILESYNC_NEODB_TOKEN")
		os.Unsetenv("PROFILESYNC_LASTFM_API_KEY")
		os.Unsetenv("PROFILESYNC_DATA_DIR")
		os.Unsetenv("PROFILESYNC_CONCURRENT_DOWNLOADS")
		os.Unsetenv("PROFILESYNC_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if !config.NeoDB.Enabled {
		t.Error("Expected neodb to be enabled")
	}

	if config.NeoDB.Token != "test-token" {
		t.Errorf("Expected neodb token to be test-token, got %s", config.NeoDB.Token)
	}

	if config.Lastfm.APIKey != "test-api-key" {
		t.Errorf("Expected lastfm API key to be test-api-key, got %s", config.Lastfm.APIKey)
	}

	if config.Output.DataDirectory != "/tmp/test-data" {
		t.Errorf("Expected data directory to be /tmp/test-data, got %s", config.Output.DataDirectory)
	}

	if config.Download.ConcurrentDownloads != 5 {
		t.Errorf("Expected concurrent downloads to be 5, got %d", config.Download.ConcurrentDownloads)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "defaults are valid",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name: "enabled instagram without credentials",
			mutate: func(c *Config) {
				c.Instagram.Enabled = true
			},
			wantError: true,
		},
		{
			name: "enabled instagram with credentials",
			mutate: func(c *Config) {
				c.Instagram.Enabled = true
				c.Instagram.UserID = "192008031"
				c.Instagram.SessionID = "session"
				c.Instagram.CSRFToken = "csrf"
			},
			wantError: false,
		},
		{
			name: "enabled neodb without token",
			mutate: func(c *Config) {
				c.NeoDB.Enabled = true
			},
			wantError: true,
		},
		{
			name: "gist id without gist token",
			mutate: func(c *Config) {
				c.WakaTime.Enabled = true
				c.WakaTime.APIKey = "waka-key"
				c.WakaTime.GistID = "abc123"
			},
			wantError: true,
		},
		{
			name: "gist id with gist token",
			mutate: func(c *Config) {
				c.WakaTime.Enabled = true
				c.WakaTime.APIKey = "waka-key"
				c.WakaTime.GistID = "abc123"
				c.Gist.Token = "ghp_token"
			},
			wantError: false,
		},
		{
			name: "zero concurrent downloads",
			mutate: func(c *Config) {
				c.Download.ConcurrentDownloads = 0
			},
			wantError: true,
		},
		{
			name: "excessive concurrent downloads",
			mutate: func(c *Config) {
				c.Download.ConcurrentDownloads = 50
			},
			wantError: true,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Logging.Level = "loud"
			},
			wantError: true,
		},
		{
			name: "missing data directory",
			mutate: func(c *Config) {
				c.Output.DataDirectory = ""
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no validation error, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `
hitokoto:
  enabled: true
  max_length: 40
output:
  data_directory: /srv/site/data
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if !config.Hitokoto.Enabled {
		t.Error("Expected hitokoto to be enabled")
	}
	if config.Hitokoto.MaxLength != 40 {
		t.Errorf("Expected max length 40, got %d", config.Hitokoto.MaxLength)
	}
	if config.Output.DataDirectory != "/srv/site/data" {
		t.Errorf("Expected data directory /srv/site/data, got %s", config.Output.DataDirectory)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}

	// Untouched sections keep their defaults.
	if config.WakaTime.BarSize != 21 {
		t.Errorf("Expected bar size default 21, got %d", config.WakaTime.BarSize)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for explicitly named missing file")
	}
}

func TestEnabledSources(t *testing.T) {
	config := DefaultConfig()
	if got := config.EnabledSources(); len(got) != 0 {
		t.Errorf("Expected no enabled sources by default, got %v", got)
	}

	config.VSCO.Enabled = true
	config.Hitokoto.Enabled = true

	got := config.EnabledSources()
	if len(got) != 2 || got[0] != "vsco" || got[1] != "hitokoto" {
		t.Errorf("Unexpected enabled sources: %v", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Lastfm.Enabled = true
	config.Lastfm.Username = "someone"
	config.Lastfm.APIKey = "key"

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if reloaded.Lastfm.Username != "someone" {
		t.Errorf("Expected lastfm username someone, got %s", reloaded.Lastfm.Username)
	}
}
