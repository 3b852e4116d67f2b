// Package config loads settings from defaults, an optional YAML file, the
// environment (including a .env file) and, last, command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const AppName = "fanfic-downloader"

type Browser struct {
	// Engine is "chrome" or "remote".
	Engine     string        `yaml:"engine"`
	RemoteURL  string        `yaml:"remote_url"`
	LogDest    string        `yaml:"log_dest"`
	Timeout    time.Duration `yaml:"timeout"`
	RevealWait time.Duration `yaml:"reveal_wait"`
}

type Config struct {
	Destination      string        `yaml:"destination"`
	LibraryDir       string        `yaml:"library_dir"`
	Listen           string        `yaml:"listen"`
	UserAgent        string        `yaml:"user_agent"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	ChapterDelay     time.Duration `yaml:"chapter_delay"`
	Browser          Browser       `yaml:"browser"`
}

func Default() *Config {
	return &Config{
		Destination:      ".",
		LibraryDir:       ".",
		Listen:           ":8080",
		HTTPTimeout:      60 * time.Second,
		RateLimitBackoff: 5 * time.Minute,
		ChapterDelay:     2 * time.Second,
		Browser: Browser{
			Engine:     "chrome",
			LogDest:    os.DevNull,
			Timeout:    2 * time.Minute,
			RevealWait: 30 * time.Second,
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/fanfic-downloader/config.yaml or its
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

// Load merges defaults, the YAML file at path (DefaultPath when empty) and
// the environment. A missing file is not an error. The returned string is
// the file that was read, if any.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	used := ""
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, "", fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			used = path
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Browser.LogDest, "LOG_DEST")
	setString(&c.Browser.Engine, "WEB_DRIVER")
	setString(&c.Browser.RemoteURL, "BROWSER_URL")
	setString(&c.Destination, "FTE_DESTINATION")
	setString(&c.LibraryDir, "FTE_LIBRARY_DIR")
	setString(&c.Listen, "FTE_LISTEN")
	setString(&c.UserAgent, "FTE_USER_AGENT")

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FTE_HTTP_TIMEOUT", &c.HTTPTimeout},
		{"FTE_RATE_LIMIT_BACKOFF", &c.RateLimitBackoff},
		{"FTE_CHAPTER_DELAY", &c.ChapterDelay},
		{"FTE_BROWSER_TIMEOUT", &c.Browser.Timeout},
	}
	for _, d := range durations {
		value := os.Getenv(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// Save writes c as YAML to path, creating parent directories.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
