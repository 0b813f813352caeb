// Package config handles TOML-based configuration loading and validation.
// Values are layered: built-in defaults, then the config file, then .env
// files and MALPHA_* environment variables. Flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"malpha/internal/httputil"
	"malpha/internal/platform"
)

const appName = "malpha"

// Strategy is one entry of the ordered fallback list.
type Strategy struct {
	Name      string   `toml:"name"`
	Mode      string   `toml:"mode"` // "relay" or "direct"
	Endpoints []string `toml:"endpoints"`
	Paths     []string `toml:"paths"`
}

// Config holds all application configuration.
type Config struct {
	Platform       string              `toml:"platform"`
	AttemptTimeout string              `toml:"attempt_timeout"`
	UserAgent      string              `toml:"user_agent"`
	APIKey         string              `toml:"api_key"`
	Proxy          string              `toml:"proxy"`
	Enrich         bool                `toml:"enrich"`
	History        bool                `toml:"history"`
	DownloadDir    string              `toml:"download_dir"`
	Listen         string              `toml:"listen"`
	Debug          bool                `toml:"debug"`
	LogFormat      string              `toml:"log_format"`
	Domains        map[string][]string `toml:"domains"`
	Strategies     []Strategy          `toml:"strategy"`
}

// DefaultMirrors are public extraction instances known to accept anonymous
// requests at the time of writing.
var DefaultMirrors = []string{
	"https://cobalt.kwiatekmiki.pl",
	"https://api.cobalt.kwiatekmiki.pl",
	"https://cobalt.wuk.sh",
	"https://co.wuk.sh",
	"https://dl.khub.ky",
	"https://api.server.cobalt.tools",
}

// DefaultPaths are tried against every mirror: the current API root first,
// then the legacy JSON route.
var DefaultPaths = []string{"/", "/api/json"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Platform:       platform.Any,
		AttemptTimeout: "8s",
		UserAgent:      httputil.UserAgent,
		Enrich:         false,
		History:        true,
		DownloadDir:    "~/Downloads/malpha",
		Listen:         "127.0.0.1:8080",
		Debug:          false,
		LogFormat:      "text",
		Strategies: []Strategy{{
			Name:      "mirrors",
			Mode:      "direct",
			Endpoints: append([]string(nil), DefaultMirrors...),
			Paths:     append([]string(nil), DefaultPaths...),
		}},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults, then applies .env
// files and MALPHA_* variables. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	// A file that declares its own strategies replaces the defaults.
	defaults := c.Strategies
	c.Strategies = nil
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(c.Strategies) == 0 {
		c.Strategies = defaults
	}
	return nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding variables that are
// already set. Missing files are ignored; a file that fails to parse is not.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MALPHA_PLATFORM"); v != "" {
		c.Platform = v
	}
	if v := os.Getenv("MALPHA_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("MALPHA_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("MALPHA_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("MALPHA_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MALPHA_DEBUG: %w", err)
		}
		c.Debug = b
	}
	if v := os.Getenv("MALPHA_RELAY"); v != "" {
		c.PrependRelay(v)
	}
	return nil
}

// PrependRelay puts a relay strategy in front of the configured ones.
// Calling it twice with the same endpoint is a no-op.
func (c *Config) PrependRelay(endpoint string) {
	if len(c.Strategies) > 0 && c.Strategies[0].Mode == "relay" && lo.Contains(c.Strategies[0].Endpoints, endpoint) {
		return
	}
	relay := Strategy{Name: "relay", Mode: "relay", Endpoints: []string{endpoint}}
	c.Strategies = append([]Strategy{relay}, c.Strategies...)
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if _, ok := platform.Lookup(c.Platform); !ok {
		return fmt.Errorf("unsupported platform %q (valid: %s)", c.Platform, strings.Join(platform.Names(), ", "))
	}

	if _, err := c.AttemptTimeoutDuration(); err != nil {
		return err
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("unsupported log_format %q (valid: text, json)", c.LogFormat)
	}

	for name := range c.Domains {
		if _, ok := platform.Lookup(name); !ok || name == platform.Any {
			return fmt.Errorf("domains: unknown platform %q", name)
		}
	}

	if len(c.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	for i, s := range c.Strategies {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if s.Mode != "relay" && s.Mode != "direct" {
			return fmt.Errorf("strategy %s: unsupported mode %q (valid: relay, direct)", label, s.Mode)
		}
		if len(s.Endpoints) == 0 {
			return fmt.Errorf("strategy %s: no endpoints", label)
		}
		for _, ep := range s.Endpoints {
			if err := httputil.ValidateURL(ep); err != nil {
				return fmt.Errorf("strategy %s: endpoint %q: %w", label, ep, err)
			}
		}
	}

	if c.Proxy != "" {
		if _, err := httputil.NewProxiedClient(c.Proxy); err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
	}

	return nil
}

// AttemptTimeoutDuration parses attempt_timeout. Empty means the resolver default.
func (c *Config) AttemptTimeoutDuration() (time.Duration, error) {
	if c.AttemptTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.AttemptTimeout)
	if err != nil {
		return 0, fmt.Errorf("attempt_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("attempt_timeout must be positive, got %s", d)
	}
	return d, nil
}

// ResolvePlatform returns the configured platform with any extra domains
// from the [domains] table applied.
func (c *Config) ResolvePlatform() (platform.Platform, error) {
	p, ok := platform.Lookup(c.Platform)
	if !ok {
		return platform.Platform{}, fmt.Errorf("unsupported platform %q", c.Platform)
	}
	if p.Name == platform.Any {
		for _, extra := range c.Domains {
			p = p.WithDomains(extra...)
		}
		return p, nil
	}
	return p.WithDomains(c.Domains[p.Name]...), nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}
