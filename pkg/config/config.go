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
)

// Config holds all configuration for the profilesync pipelines.
type Config struct {
	// Per-source settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`
	VSCO      VSCOConfig      `yaml:"vsco" json:"vsco"`
	NeoDB     NeoDBConfig     `yaml:"neodb" json:"neodb"`
	Lastfm    LastfmConfig    `yaml:"lastfm" json:"lastfm"`
	WakaTime  WakaTimeConfig  `yaml:"wakatime" json:"wakatime"`
	Hitokoto  HitokotoConfig  `yaml:"hitokoto" json:"hitokoto"`

	// Gist persistence
	Gist GistConfig `yaml:"gist" json:"gist"`

	// Output locations
	Output OutputConfig `yaml:"output" json:"output"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Image download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds the Instagram feed sync settings. SessionID and
// CSRFToken come from an authenticated browser session.
type InstagramConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	UserID    string `yaml:"user_id" json:"user_id"`
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	Count     int    `yaml:"count" json:"count"`
}

// VSCOConfig holds the VSCO gallery sync settings.
type VSCOConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Username string `yaml:"username" json:"username"`
	Count    int    `yaml:"count" json:"count"`
}

// NeoDBConfig holds the NeoDB shelf sync settings.
type NeoDBConfig struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	BaseURL    string   `yaml:"base_url" json:"base_url"`
	Token      string   `yaml:"token" json:"token"`
	Categories []string `yaml:"categories" json:"categories"`
}

// LastfmConfig holds the Last.fm recent-track sync settings.
type LastfmConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Username string `yaml:"username" json:"username"`
	APIKey   string `yaml:"api_key" json:"api_key"`
	GistID   string `yaml:"gist_id" json:"gist_id"`
}

// WakaTimeConfig holds the WakaTime weekly-stats sync settings.
type WakaTimeConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	APIKey  string `yaml:"api_key" json:"api_key"`
	GistID  string `yaml:"gist_id" json:"gist_id"`
	BarSize int    `yaml:"bar_size" json:"bar_size"`
	MaxRows int    `yaml:"max_rows" json:"max_rows"`
}

// HitokotoConfig holds the Hitokoto quote sync settings. Endpoints are
// tried in order until one responds.
type HitokotoConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Endpoints []string `yaml:"endpoints" json:"endpoints"`
	GistID    string   `yaml:"gist_id" json:"gist_id"`
	MaxLength int      `yaml:"max_length" json:"max_length"`
}

// GistConfig holds the GitHub token used for Gist updates.
type GistConfig struct {
	Token string `yaml:"token" json:"token"`
}

// OutputConfig holds output directory configuration. DataDirectory receives
// the JSON documents, PhotosDirectory the downloaded images.
type OutputConfig struct {
	DataDirectory   string `yaml:"data_directory" json:"data_directory"`
	PhotosDirectory string `yaml:"photos_directory" json:"photos_directory"`
}

// HTTPConfig holds shared HTTP client configuration.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds image download configuration.
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults. All
// sources start disabled; enabling one makes its credentials required.
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			Count: 12,
		},
		VSCO: VSCOConfig{
			Count: 12,
		},
		NeoDB: NeoDBConfig{
			BaseURL:    "https://neodb.social",
			Categories: []string{"movie", "tv", "book", "game"},
		},
		WakaTime: WakaTimeConfig{
			BarSize: 21,
			MaxRows: 5,
		},
		Hitokoto: HitokotoConfig{
			Endpoints: []string{
				"https://v1.hitokoto.cn",
				"https://international.v1.hitokoto.cn",
			},
			MaxLength: 64,
		},
		Output: OutputConfig{
			DataDirectory:   "./data",
			PhotosDirectory: "./photos",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			RetryAttempts:       3,
			RequestsPerMinute:   60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from PROFILESYNC_* environment
// variables. Only variables that are set take effect.
func (c *Config) LoadFromEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			var val int
			fmt.Sscanf(v, "%d", &val)
			if val > 0 {
				*dst = val
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.ToLower(v) == "true" || v == "1"
		}
	}

	setBool("PROFILESYNC_INSTAGRAM_ENABLED", &c.Instagram.Enabled)
	setString("PROFILESYNC_INSTAGRAM_USER_ID", &c.Instagram.UserID)
	setString("PROFILESYNC_INSTAGRAM_SESSION_ID", &c.Instagram.SessionID)
	setString("PROFILESYNC_INSTAGRAM_CSRF_TOKEN", &c.Instagram.CSRFToken)
	setInt("PROFILESYNC_INSTAGRAM_COUNT", &c.Instagram.Count)

	setBool("PROFILESYNC_VSCO_ENABLED", &c.VSCO.Enabled)
	setString("PROFILESYNC_VSCO_USERNAME", &c.VSCO.Username)
	setInt("PROFILESYNC_VSCO_COUNT", &c.VSCO.Count)

	setBool("PROFILESYNC_NEODB_ENABLED", &c.NeoDB.Enabled)
	setString("PROFILESYNC_NEODB_BASE_URL", &c.NeoDB.BaseURL)
	setString("PROFILESYNC_NEODB_TOKEN", &c.NeoDB.Token)

	setBool("PROFILESYNC_LASTFM_ENABLED", &c.Lastfm.Enabled)
	setString("PROFILESYNC_LASTFM_USERNAME", &c.Lastfm.Username)
	setString("PROFILESYNC_LASTFM_API_KEY", &c.Lastfm.APIKey)
	setString("PROFILESYNC_LASTFM_GIST_ID", &c.Lastfm.GistID)

	setBool("PROFILESYNC_WAKATIME_ENABLED", &c.WakaTime.Enabled)
	setString("PROFILESYNC_WAKATIME_API_KEY", &c.WakaTime.APIKey)
	setString("PROFILESYNC_WAKATIME_GIST_ID", &c.WakaTime.GistID)

	setBool("PROFILESYNC_HITOKOTO_ENABLED", &c.Hitokoto.Enabled)
	setString("PROFILESYNC_HITOKOTO_GIST_ID", &c.Hitokoto.GistID)
	setInt("PROFILESYNC_HITOKOTO_MAX_LENGTH", &c.Hitokoto.MaxLength)

	setString("PROFILESYNC_GIST_TOKEN", &c.Gist.Token)
	setString("PROFILESYNC_DATA_DIR", &c.Output.DataDirectory)
	setString("PROFILESYNC_PHOTOS_DIR", &c.Output.PhotosDirectory)
	setInt("PROFILESYNC_CONCURRENT_DOWNLOADS", &c.Download.ConcurrentDownloads)
	setString("PROFILESYNC_LOG_LEVEL", &c.Logging.Level)

	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls
// back to the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".profilesync.yaml",
		".profilesync.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "profilesync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "profilesync", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".profilesync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// EnabledSources returns the names of all enabled sources in registry order.
func (c *Config) EnabledSources() []string {
	var names []string
	if c.Instagram.Enabled {
		names = append(names, "instagram")
	}
	if c.VSCO.Enabled {
		names = append(names, "vsco")
	}
	if c.NeoDB.Enabled {
		names = append(names, "neodb")
	}
	if c.Lastfm.Enabled {
		names = append(names, "lastfm")
	}
	if c.WakaTime.Enabled {
		names = append(names, "wakatime")
	}
	if c.Hitokoto.Enabled {
		names = append(names, "hitokoto")
	}
	return names
}

// Validate checks the configuration. Credential checks apply only to
// enabled sources; a missing credential is a fatal pre-flight error.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.Enabled {
		if c.Instagram.UserID == "" {
			errs = append(errs, errors.New("instagram user ID is required"))
		}
		if c.Instagram.SessionID == "" {
			errs = append(errs, errors.New("instagram session ID is required"))
		}
		if c.Instagram.CSRFToken == "" {
			errs = append(errs, errors.New("instagram CSRF token is required"))
		}
	}

	if c.VSCO.Enabled && c.VSCO.Username == "" {
		errs = append(errs, errors.New("vsco username is required"))
	}

	if c.NeoDB.Enabled {
		if c.NeoDB.Token == "" {
			errs = append(errs, errors.New("neodb access token is required"))
		}
		if c.NeoDB.BaseURL == "" {
			errs = append(errs, errors.New("neodb base URL is required"))
		}
		if len(c.NeoDB.Categories) == 0 {
			errs = append(errs, errors.New("neodb categories must not be empty"))
		}
	}

	if c.Lastfm.Enabled {
		if c.Lastfm.Username == "" {
			errs = append(errs, errors.New("lastfm username is required"))
		}
		if c.Lastfm.APIKey == "" {
			errs = append(errs, errors.New("lastfm API key is required"))
		}
	}

	if c.WakaTime.Enabled {
		if c.WakaTime.APIKey == "" {
			errs = append(errs, errors.New("wakatime API key is required"))
		}
		if c.WakaTime.GistID == "" {
			errs = append(errs, errors.New("wakatime gist ID is required"))
		}
		if c.WakaTime.BarSize <= 0 {
			errs = append(errs, errors.New("wakatime bar size must be positive"))
		}
	}

	if c.Hitokoto.Enabled && len(c.Hitokoto.Endpoints) == 0 {
		errs = append(errs, errors.New("hitokoto endpoints must not be empty"))
	}

	// A gist token is required as soon as any pipeline writes to a gist.
	if c.Gist.Token == "" {
		if (c.Lastfm.Enabled && c.Lastfm.GistID != "") ||
			(c.WakaTime.Enabled && c.WakaTime.GistID != "") ||
			(c.Hitokoto.Enabled && c.Hitokoto.GistID != "") {
			errs = append(errs, errors.New("gist token is required when a gist ID is configured"))
		}
	}

	if c.Output.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Output.PhotosDirectory == "" {
		errs = append(errs, errors.New("photos directory is required"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges cobra flag values into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if photosDir, ok := flags["photos-dir"].(string); ok && photosDir != "" {
		c.Output.PhotosDirectory = photosDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// LoadUnvalidated loads configuration with proper precedence: command line
// flags > environment variables > .env file > config file > defaults.
// Validation is deferred so the caller can inject credentials from the
// secure store first.
func LoadUnvalidated(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".profilesync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)
	return config, nil
}

// Load loads and validates configuration from all sources. Validation runs
// once here, never again downstream.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := LoadUnvalidated(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
