// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/askq/internal/cloud"
	"github.com/jeranaias/askq/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete askq configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// EndpointConfig describes the completion endpoint.
type EndpointConfig struct {
	// URL is used verbatim and may carry an access key in its query string.
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds a single request. 0 means no bound.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (e EndpointConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	SidebarWidth int    `toml:"sidebar_width" json:"sidebar_width"`
	Placeholder  string `toml:"placeholder" json:"placeholder"`
	AltScreen    bool   `toml:"alt_screen" json:"alt_screen"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
}

// Defaults.
const (
	DefaultSidebarWidth = 28
	DefaultPlaceholder  = "Ask me anything"
	DefaultLogLevel     = "info"
	DefaultMaxSizeMB    = 10
	DefaultMaxBackups   = 3

	MinSidebarWidth = 12
	MaxSidebarWidth = 80
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{},
		UI: UIConfig{
			SidebarWidth: DefaultSidebarWidth,
			Placeholder:  DefaultPlaceholder,
			AltScreen:    true,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the askq configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".askq"), nil
}

// Path returns the path to the default TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the default log file location.
func DefaultLogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "askq.log"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the configuration.
//
// Order of precedence, lowest first: built-in defaults, the TOML file at path
// (or Path() when empty; a missing file is not an error), the .env file in
// the working directory, then ASKQ_* environment variables.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	if err := LoadDotEnv(""); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg. Keys absent from the file
// keep their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path (".env" when empty) into the
// process environment. Variables already set are not overwritten and a
// missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// Environment variables read by ApplyEnvOverrides.
const (
	EnvEndpointURL     = "ASKQ_ENDPOINT_URL"
	EnvEndpointTimeout = "ASKQ_ENDPOINT_TIMEOUT"
	EnvLogLevel        = "ASKQ_LOG_LEVEL"
	EnvLogFile         = "ASKQ_LOG_FILE"
)

// ApplyEnvOverrides applies ASKQ_* environment variables:
//   - ASKQ_ENDPOINT_URL: overrides endpoint.url
//   - ASKQ_ENDPOINT_TIMEOUT: overrides endpoint.timeout_secs
//   - ASKQ_LOG_LEVEL: overrides log.level
//   - ASKQ_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvEndpointURL)); v != "" {
		c.Endpoint.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEndpointTimeout)); v != "" {
		// Unparseable values are left for Validate to report.
		if secs, err := strconv.Atoi(v); err == nil {
			c.Endpoint.TimeoutSecs = secs
		} else {
			c.Endpoint.TimeoutSecs = -1
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		c.Log.File = v
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	c.Endpoint.URL = strings.TrimSpace(c.Endpoint.URL)
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = DefaultSidebarWidth
	}
	if c.UI.Placeholder == "" {
		c.UI.Placeholder = DefaultPlaceholder
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultMaxBackups
	}
}

// =============================================================================
// SAVE
// =============================================================================

const fileHeader = `# askq configuration file
#
# endpoint.url is sent verbatim; it may embed an access key, so keep this
# file private. ASKQ_ENDPOINT_URL overrides it.

`

// Save writes cfg as TOML to path.
// SECURITY: The file is written 0600 because the URL may carry a key.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors when anything
// is out of range. An empty endpoint URL is valid; requests then fail with
// cloud.ErrNotConfigured.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Endpoint.URL != "" {
		u, err := url.Parse(c.Endpoint.URL)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{"endpoint.url", "not a valid URL"})
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, ValidationError{"endpoint.url", "scheme must be http or https"})
		case u.Host == "":
			errs = append(errs, ValidationError{"endpoint.url", "host is required"})
		}
	}
	if c.Endpoint.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{"endpoint.timeout_secs", "must be a non-negative number of seconds"})
	}

	if c.UI.SidebarWidth < MinSidebarWidth || c.UI.SidebarWidth > MaxSidebarWidth {
		errs = append(errs, ValidationError{"ui.sidebar_width", fmt.Sprintf("must be between %d and %d", MinSidebarWidth, MaxSidebarWidth)})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{"log.max_size_mb", "must not be negative"})
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, ValidationError{"log.max_backups", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON rendering for debugging.
// SECURITY: The endpoint is redacted to scheme, host and path.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Endpoint.URL != "" {
		safe.Endpoint.URL = cloud.RedactURL(safe.Endpoint.URL)
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads the default file on first access if SetGlobal was never called.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.Lock()
		defer globalConfigMu.Unlock()
		if globalConfig != nil {
			return
		}
		cfg, err := Load("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
