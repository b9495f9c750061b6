package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models sitedex.yml.
type Config struct {
	Site struct {
		// URL is the directory's canonical site URL reciprocal backlinks
		// must point to, e.g. https://sitedex.io.
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	} `yaml:"site"`
	Badge struct {
		// AssetPaths are the known badge image paths a submitter may embed.
		AssetPaths []string `yaml:"asset_paths"`
	} `yaml:"badge"`
	Verify struct {
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		UserAgent      string `yaml:"user_agent"`
		BatchDelayMS   int    `yaml:"batch_delay_ms"`
	} `yaml:"verify"`
	RateLimits struct {
		SubmissionsPerDay int `yaml:"submissions_per_day"`
		UploadsPerHour    int `yaml:"uploads_per_hour"`
	} `yaml:"rate_limits"`
	Admin struct {
		// Emails is the administrator allow-list.
		Emails []string `yaml:"emails"`
	} `yaml:"admin"`
	Publish struct {
		// Secret guards the publish-cycle trigger endpoint. Empty disables
		// the check (trusted-network deployments).
		Secret          string `yaml:"secret"`
		IntervalMinutes int    `yaml:"interval_minutes"`
	} `yaml:"publish"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Site.URL == "" {
		return fmt.Errorf("config.site.url is required")
	}
	u, err := url.Parse(c.Site.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.site.url must be an absolute URL")
	}
	if len(c.Badge.AssetPaths) == 0 {
		return fmt.Errorf("config.badge.asset_paths is required")
	}
	for _, p := range c.Badge.AssetPaths {
		if p == "" {
			return fmt.Errorf("config.badge.asset_paths contains an empty path")
		}
	}
	if c.Verify.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.verify.timeout_seconds must be positive")
	}
	if c.RateLimits.SubmissionsPerDay <= 0 {
		return fmt.Errorf("config.rate_limits.submissions_per_day must be positive")
	}
	if c.RateLimits.UploadsPerHour <= 0 {
		return fmt.Errorf("config.rate_limits.uploads_per_hour must be positive")
	}
	for _, e := range c.Admin.Emails {
		if !strings.Contains(e, "@") {
			return fmt.Errorf("config.admin.emails contains invalid address %q", e)
		}
	}
	return nil
}

// IsAdmin reports whether an email is in the administrator allow-list.
func (c *Config) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, e := range c.Admin.Emails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// VerifyTimeout returns the verifier fetch deadline.
func (c *Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Verify.TimeoutSeconds) * time.Second
}

// BatchDelay returns the inter-request delay used by batch verification.
func (c *Config) BatchDelay() time.Duration {
	if c.Verify.BatchDelayMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Verify.BatchDelayMS) * time.Millisecond
}

// PublishInterval returns the recommended publish-cycle cadence.
func (c *Config) PublishInterval() time.Duration {
	if c.Publish.IntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Publish.IntervalMinutes) * time.Minute
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "sitedex.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with sitedex config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a canonical site URL.
func Default(siteURL string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, siteURL))).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(siteURL string) string {
	return fmt.Sprintf(defaultTemplate, siteURL)
}

const defaultTemplate = `site:
  url: %s
  name: Sitedex

badge:
  asset_paths:
    - /badges/sitedex-badge.svg
    - /badges/sitedex-badge-dark.svg

verify:
  timeout_seconds: 10
  user_agent: "SitedexBot/1.0 (+https://sitedex.io/badge)"
  batch_delay_ms: 500

rate_limits:
  submissions_per_day: 5
  uploads_per_hour: 10

admin:
  emails: []

publish:
  secret: ""
  interval_minutes: 15

auth:
  jwt_secret: ""
`
