// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"privacy-sentinel/internal/detector"
)

// Formats lists the report formats a configuration may select.
var Formats = []string{"text", "json", "yaml", "csv"}

// Config represents the application configuration
type Config struct {
	Defaults     Defaults           `yaml:"defaults"`
	Supplemental Supplemental       `yaml:"supplemental"`
	Server       Server             `yaml:"server"`
	Ingest       Ingest             `yaml:"ingest"`
	Suppressions Suppressions       `yaml:"suppressions"`
	Profiles     map[string]Profile `yaml:"profiles"`
}

// Defaults holds the settings a scan runs with unless a profile or a flag
// overrides them
type Defaults struct {
	Format           string `yaml:"format"`
	ConfidenceLevels string `yaml:"confidence_levels"`
	Categories       string `yaml:"categories"`
	Masked           bool   `yaml:"masked"`
	ShowMatch        bool   `yaml:"show_match"`
	Render           bool   `yaml:"render"`
	Verbose          bool   `yaml:"verbose"`
	NoColor          bool   `yaml:"no_color"`
	ContextWindow    int    `yaml:"context_window"`
	Observability    string `yaml:"observability"`
}

// Supplemental configures the optional model-backed collaborator
type Supplemental struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Validate          bool          `yaml:"validate"`
	FailureThreshold  int           `yaml:"failure_threshold"`
	Cooldown          time.Duration `yaml:"cooldown"`
}

// APIKey reads the key from the configured environment variable
func (s Supplemental) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// Server configures the HTTP API
type Server struct {
	Address      string        `yaml:"address"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Ingest limits file extraction
type Ingest struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// Suppressions points at the suppression rule file
type Suppressions struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// Profile represents a named set of overrides. Pointer fields distinguish
// "not set" from false.
type Profile struct {
	Description      string `yaml:"description"`
	Format           string `yaml:"format"`
	ConfidenceLevels string `yaml:"confidence_levels"`
	Categories       string `yaml:"categories"`
	Masked           *bool  `yaml:"masked"`
	ShowMatch        *bool  `yaml:"show_match"`
	Render           *bool  `yaml:"render"`
	Verbose          *bool  `yaml:"verbose"`
	NoColor          *bool  `yaml:"no_color"`
	ContextWindow    int    `yaml:"context_window"`
	Supplemental     *bool  `yaml:"supplemental"`
}

func boolPtr(b bool) *bool { return &b }

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			Format:           "text",
			ConfidenceLevels: "all",
			Categories:       "all",
			ContextWindow:    detector.DefaultContextWindow,
			Observability:    "off",
		},
		Supplemental: Supplemental{
			Model:             "gpt-4o-mini",
			APIKeyEnv:         "SENTINEL_API_KEY",
			Timeout:           10 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 2,
			Burst:             1,
			FailureThreshold:  5,
			Cooldown:          30 * time.Second,
		},
		Server: Server{
			Address:      "127.0.0.1:8080",
			MaxBodyBytes: 10 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Ingest: Ingest{MaxFileBytes: 25 << 20},
		Suppressions: Suppressions{
			Enabled: true,
			File:    ".sentinel-suppressions.yaml",
		},
		Profiles: map[string]Profile{
			"redact": {
				Description: "Masked values and a redacted rendition of the text",
				Format:      "text",
				Masked:      boolPtr(true),
				Render:      boolPtr(true),
			},
			"financial": {
				Description:      "Card, account and government ID numbers only",
				Categories:       "CreditCard,BankAccount,Aadhaar,Passport,DriversLicense",
				ConfidenceLevels: "high,medium",
				Masked:           boolPtr(true),
			},
		},
	}
}

// LoadConfig loads configuration from the specified file path. Keys absent
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	profiles := config.Profiles
	config.Profiles = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	for name, p := range profiles {
		if _, ok := config.Profiles[name]; !ok {
			if config.Profiles == nil {
				config.Profiles = make(map[string]Profile)
			}
			config.Profiles[name] = p
		}
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadConfigOrDefault loads configFile (or the first file FindConfigFile
// finds) and falls back to defaults when loading fails
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default()
	}
	return cfg
}

// FindConfigFile looks for a configuration file in the working directory
// and then in the user configuration directory
func FindConfigFile() string {
	for _, name := range []string{"sentinel.yaml", "sentinel.yml", ".sentinel.yaml", ".sentinel.yml"} {
		if fileExists(name) {
			return name
		}
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, "privacy-sentinel", name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ValidateConfig checks every section and reports all problems at once
func ValidateConfig(config *Config) error {
	var errs []error

	if err := ValidateFormat(config.Defaults.Format); err != nil {
		errs = append(errs, fmt.Errorf("defaults.format: %w", err))
	}
	if err := ValidateCategories(config.Defaults.Categories); err != nil {
		errs = append(errs, fmt.Errorf("defaults.categories: %w", err))
	}
	if err := ValidateConfidenceLevels(config.Defaults.ConfidenceLevels); err != nil {
		errs = append(errs, fmt.Errorf("defaults.confidence_levels: %w", err))
	}
	if config.Defaults.ContextWindow <= 0 {
		errs = append(errs, errors.New("defaults.context_window must be positive"))
	}

	s := config.Supplemental
	if s.Timeout <= 0 {
		errs = append(errs, errors.New("supplemental.timeout must be positive"))
	}
	if s.MaxRetries < 0 {
		errs = append(errs, errors.New("supplemental.max_retries cannot be negative"))
	}
	if s.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("supplemental.requests_per_second cannot be negative"))
	}
	if config.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if config.Ingest.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("ingest.max_file_bytes must be positive"))
	}

	for _, name := range config.ListProfiles() {
		p := config.Profiles[name]
		if p.Format != "" {
			if err := ValidateFormat(p.Format); err != nil {
				errs = append(errs, fmt.Errorf("profiles.%s.format: %w", name, err))
			}
		}
		if p.Categories != "" {
			if err := ValidateCategories(p.Categories); err != nil {
				errs = append(errs, fmt.Errorf("profiles.%s.categories: %w", name, err))
			}
		}
		if p.ConfidenceLevels != "" {
			if err := ValidateConfidenceLevels(p.ConfidenceLevels); err != nil {
				errs = append(errs, fmt.Errorf("profiles.%s.confidence_levels: %w", name, err))
			}
		}
		if p.ContextWindow < 0 {
			errs = append(errs, fmt.Errorf("profiles.%s.context_window cannot be negative", name))
		}
	}
	return errors.Join(errs...)
}

// ValidateFormat rejects unknown report formats
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// ValidateCategories accepts "all" or a comma-separated list of category
// names
func ValidateCategories(list string) error {
	for _, name := range splitList(list) {
		if strings.EqualFold(name, "all") {
			continue
		}
		if _, ok := detector.ParseCategory(name); !ok {
			return fmt.Errorf("unknown category %q", name)
		}
	}
	return nil
}

// ValidateConfidenceLevels accepts "all" or a comma-separated subset of
// high, medium and low
func ValidateConfidenceLevels(list string) error {
	for _, level := range splitList(list) {
		switch strings.ToLower(level) {
		case "all", "high", "medium", "low":
		default:
			return fmt.Errorf("unknown confidence level %q", level)
		}
	}
	return nil
}

func splitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ListProfiles returns the profile names in sorted order
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// Resolve returns the defaults with the named profile applied on top. An
// empty name returns the defaults unchanged.
func (c *Config) Resolve(profileName string) (Defaults, bool, error) {
	d := c.Defaults
	supplemental := c.Supplemental.Enabled
	if profileName == "" {
		return d, supplemental, nil
	}

	p := c.GetProfile(profileName)
	if p == nil {
		return d, supplemental, fmt.Errorf("profile %q not found (available: %s)",
			profileName, strings.Join(c.ListProfiles(), ", "))
	}

	if p.Format != "" {
		d.Format = p.Format
	}
	if p.ConfidenceLevels != "" {
		d.ConfidenceLevels = p.ConfidenceLevels
	}
	if p.Categories != "" {
		d.Categories = p.Categories
	}
	if p.ContextWindow > 0 {
		d.ContextWindow = p.ContextWindow
	}
	for _, o := range []struct {
		src *bool
		dst *bool
	}{
		{p.Masked, &d.Masked},
		{p.ShowMatch, &d.ShowMatch},
		{p.Render, &d.Render},
		{p.Verbose, &d.Verbose},
		{p.NoColor, &d.NoColor},
		{p.Supplemental, &supplemental},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	return d, supplemental, nil
}
