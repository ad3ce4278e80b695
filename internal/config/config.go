// Package config loads the server configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables. Command-line flags are applied last by the cmd
// package. The result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"gopkg.in/yaml.v3"

	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/validation"
)

// AppName names the config directory and the binary.
const AppName = "gtasks-mcp"

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the complete server configuration.
type Config struct {
	DefaultListID string        `yaml:"default_list_id" validate:"required"`
	TimeZone      string        `yaml:"time_zone" validate:"required"`
	ReadOnly      bool          `yaml:"read_only"`
	APITimeout    time.Duration `yaml:"api_timeout" validate:"gt=0"`

	Limits    Limits          `yaml:"limits"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Auth      AuthConfig      `yaml:"auth"`
}

// Limits bounds output size and fan-out.
type Limits struct {
	CharacterLimit int `yaml:"character_limit" validate:"min=1000"`
	MaxLists       int `yaml:"max_lists" validate:"min=1,max=100"`
	TasksPerList   int `yaml:"tasks_per_list" validate:"min=1,max=1000"`
	Concurrency    int `yaml:"concurrency" validate:"min=1,max=16"`
}

// LogConfig selects level and handler format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TransportConfig selects how the MCP server is exposed.
type TransportConfig struct {
	Mode        string   `yaml:"mode" validate:"oneof=stdio http"`
	HTTPAddr    string   `yaml:"http_addr" validate:"required"`
	RateLimit   string   `yaml:"rate_limit"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// MetricsConfig controls the dedicated metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AuthConfig points at the OAuth client credentials and the token file.
// Either CredentialsFile or ClientID and ClientSecret must be usable.
type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	TokenFile       string `yaml:"token_file"`
	RedirectURL     string `yaml:"redirect_url"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		DefaultListID: tasks.DefaultListID,
		TimeZone:      "Local",
		APITimeout:    tasks.DefaultAPITimeout,
		Limits: Limits{
			CharacterLimit: 25000,
			MaxLists:       50,
			TasksPerList:   100,
			Concurrency:    4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transport: TransportConfig{
			Mode:      TransportStdio,
			HTTPAddr:  "127.0.0.1:8080",
			RateLimit: "20-S",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Auth: AuthConfig{
			RedirectURL: "urn:ietf:wg:oauth:2.0:oob",
		},
	}
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/gtasks-mcp on
// Linux.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the configuration. An empty path uses config.yaml in Dir and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field bounds and the values that need parsing.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Transport.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.Transport.RateLimit); err != nil {
			return fmt.Errorf("invalid configuration: rate_limit %q: %w", c.Transport.RateLimit, err)
		}
	}
	return nil
}

// Location resolves TimeZone. "Local" is the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// TokenPath returns the token file, defaulting to token.json in Dir.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return c.Auth.TokenFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.json"), nil
}

// CredentialsPath returns the OAuth client file, defaulting to
// credentials.json in Dir.
func (c *Config) CredentialsPath() (string, error) {
	if c.Auth.CredentialsFile != "" {
		return c.Auth.CredentialsFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DefaultListID, "GTASKS_DEFAULT_LIST")
	setString(&cfg.TimeZone, "GTASKS_TIME_ZONE")
	setString(&cfg.Log.Level, "GTASKS_LOG_LEVEL")
	setString(&cfg.Log.Format, "GTASKS_LOG_FORMAT")
	setString(&cfg.Transport.Mode, "GTASKS_TRANSPORT")
	setString(&cfg.Transport.HTTPAddr, "GTASKS_HTTP_ADDR")
	setString(&cfg.Transport.RateLimit, "GTASKS_RATE_LIMIT")
	setString(&cfg.Metrics.Addr, "METRICS_ADDR")
	setString(&cfg.Auth.CredentialsFile, "GTASKS_CREDENTIALS_FILE")
	setString(&cfg.Auth.ClientID, "GTASKS_CLIENT_ID")
	setString(&cfg.Auth.ClientSecret, "GTASKS_CLIENT_SECRET")
	setString(&cfg.Auth.TokenFile, "GTASKS_TOKEN_FILE")

	if v := os.Getenv("GTASKS_CORS_ORIGINS"); v != "" {
		cfg.Transport.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Transport.CORSOrigins = append(cfg.Transport.CORSOrigins, origin)
			}
		}
	}

	var errs []error
	errs = append(errs,
		setBool(&cfg.ReadOnly, "GTASKS_READ_ONLY"),
		setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED"),
		setInt(&cfg.Limits.CharacterLimit, "GTASKS_CHARACTER_LIMIT"),
		setInt(&cfg.Limits.MaxLists, "GTASKS_MAX_LISTS"),
		setInt(&cfg.Limits.TasksPerList, "GTASKS_TASKS_PER_LIST"),
		setInt(&cfg.Limits.Concurrency, "GTASKS_CONCURRENCY"),
	)
	if v := os.Getenv("GTASKS_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid GTASKS_API_TIMEOUT %q: %w", v, err))
		} else {
			cfg.APITimeout = d
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
