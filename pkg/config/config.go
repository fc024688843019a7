package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	apperrors "imgurdl/pkg/errors"
)

// DefaultPath is the config file used when --config is not given
const DefaultPath = "config.yaml"

// Config holds all configuration options for imgurdl. It is built once by
// Load and treated as read-only afterwards.
type Config struct {
	// Imgur application credentials
	ClientID     string `yaml:"imgur_client_id" json:"imgur_client_id"`
	ClientSecret string `yaml:"imgur_client_secret" json:"imgur_client_secret"`

	API      APIConfig      `yaml:"api" json:"api"`
	Download DownloadConfig `yaml:"download" json:"download"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Grid     GridConfig     `yaml:"grid" json:"grid"`
}

// APIConfig holds Imgur API settings
type APIConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory  string `yaml:"directory" json:"directory"`
	ListFile   string `yaml:"list_file" json:"list_file"`
	ListPrefix string `yaml:"list_prefix" json:"list_prefix"`
	Extension  string `yaml:"extension" json:"extension"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// GridConfig holds contact sheet settings
type GridConfig struct {
	Output    string `yaml:"output" json:"output"`
	Columns   int    `yaml:"columns" json:"columns"`
	ThumbSize int    `yaml:"thumb_size" json:"thumb_size"`
	Quality   int    `yaml:"quality" json:"quality"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.imgur.com/3",
			UserAgent: "imgurdl/1.0",
		},
		Download: DownloadConfig{
			Directory:  "images",
			ListFile:   "links.txt",
			ListPrefix: "https://imgur.com/a/",
			Extension:  ".jpg",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Grid: GridConfig{
			Output:    "grid.jpg",
			Columns:   4,
			ThumbSize: 256,
			Quality:   90,
		},
	}
}

// LoadFromEnv applies IMGURDL_* environment overrides
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("IMGURDL_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("IMGURDL_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("IMGURDL_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("IMGURDL_DIRECTORY"); v != "" {
		c.Download.Directory = v
	}
	if v := os.Getenv("IMGURDL_LIST_FILE"); v != "" {
		c.Download.ListFile = v
	}
	if v := os.Getenv("IMGURDL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IMGURDL_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("IMGURDL_GRID_COLUMNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMGURDL_GRID_COLUMNS: %w", err)
		}
		c.Grid.Columns = n
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Logging.NoColor = true
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. When required is false
// a missing file is not an error.
func (c *Config) LoadFromFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// yaml.v3 errors carry the offending line number
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks settings other than credentials
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.Extension == "" || !strings.HasPrefix(c.Download.Extension, ".") {
		errs = append(errs, errors.New("download extension must start with a dot"))
	}
	if c.Grid.Columns <= 0 {
		errs = append(errs, errors.New("grid columns must be positive"))
	}
	if c.Grid.ThumbSize <= 0 {
		errs = append(errs, errors.New("grid thumb size must be positive"))
	}
	if c.Grid.Quality < 1 || c.Grid.Quality > 100 {
		errs = append(errs, errors.New("grid quality must be between 1 and 100"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateCredentials checks that both Imgur credentials are present
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "imgur_client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "imgur_client_secret")
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.ErrorTypeConfig, 0,
			fmt.Sprintf("missing credentials: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// HasCredentials reports whether both credentials are set
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Empty values leave the current setting alone.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["directory"].(string); ok && dir != "" {
		c.Download.Directory = dir
	}
	if listFile, ok := flags["list-file"].(string); ok && listFile != "" {
		c.Download.ListFile = listFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
	if columns, ok := flags["grid-columns"].(int); ok && columns > 0 {
		c.Grid.Columns = columns
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
//
// An empty configPath means DefaultPath, which may be absent. An explicit
// path must exist. Credentials are not checked here; see ValidateCredentials.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".imgurdl.env"))
	}

	required := configPath != ""
	if !required {
		configPath = DefaultPath
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath, required); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, err, "")
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, err, "failed to load environment variables")
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, err, "configuration validation failed: "+err.Error())
	}
	return cfg, nil
}
