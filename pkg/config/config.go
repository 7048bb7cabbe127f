package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sunpark20/lightstock/pkg/util"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Environment string    `yaml:"environment" default:"development" validate:"oneof=development production test"`
	Server      Server    `yaml:"server"`
	Log         Log       `yaml:"log"`
	Metrics     Metrics   `yaml:"metrics"`
	Upstream    Upstream  `yaml:"upstream"`
	Cache       Cache     `yaml:"cache"`
	Fallback    Fallback  `yaml:"fallback"`
	RateLimit   RateLimit `yaml:"rate_limit"`
}

type Server struct {
	Port            int           `yaml:"port" default:"3000" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stdout"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type Upstream struct {
	BaseURL      string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
	Timeout      time.Duration `yaml:"timeout" default:"5s" validate:"gt=0"`
	RetryLimit   int           `yaml:"retry_limit" default:"2" validate:"gte=0,lte=10"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"1s" validate:"gte=0"`
	UserAgent    string        `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"`
	HistoryDays  int           `yaml:"history_days" default:"7" validate:"gte=2,lte=60"`
	SearchLimit  int           `yaml:"search_limit" default:"10" validate:"gte=1,lte=50"`
}

type Cache struct {
	Duration        time.Duration `yaml:"duration" default:"5m" validate:"gt=0"`
	HTTPDuration    time.Duration `yaml:"http_duration" default:"5m" validate:"gte=0"`
	MaxEntries      int           `yaml:"max_entries" default:"10000" validate:"gte=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m" validate:"gte=0"`
	CacheMock       bool          `yaml:"cache_mock" default:"true"`
	CoalesceMisses  bool          `yaml:"coalesce_misses"`
}

type Fallback struct {
	Historical bool `yaml:"historical" default:"true"`
	Mock       bool `yaml:"mock" default:"true"`
}

type RateLimit struct {
	Enabled bool `yaml:"enabled" default:"true"`
	API     Rule `yaml:"api"`
	Stock   Rule `yaml:"stock"`
	Search  Rule `yaml:"search"`
}

// SetDefaults implements defaults.Setter.
func (r *RateLimit) SetDefaults() {
	if r.API == (Rule{}) {
		r.API = Rule{Limit: 100, Window: 15 * time.Minute}
	}
	if r.Stock == (Rule{}) {
		r.Stock = Rule{Limit: 30, Window: 5 * time.Minute}
	}
	if r.Search == (Rule{}) {
		r.Search = Rule{Limit: 20, Window: 5 * time.Minute}
	}
}

// Rule allows Limit requests per Window for one client.
type Rule struct {
	Limit  int           `yaml:"limit" validate:"gte=1"`
	Window time.Duration `yaml:"window" validate:"gt=0"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML configuration file on top of the defaults.
// A missing file is not an error; the defaults are used as they are.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STOCK_API_BASE_URL"); v != "" {
		c.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("CACHE_DURATION"); v != "" {
		ms := util.ParseIntDefault(v, -1)
		if ms <= 0 {
			return nil, fmt.Errorf("CACHE_DURATION must be a positive number of milliseconds, got %q", v)
		}
		c.Cache.Duration = time.Duration(ms) * time.Millisecond
		c.Cache.HTTPDuration = c.Cache.Duration
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c *Config) IsProduction() bool  { return c.Environment == EnvProduction }
func (c *Config) IsDevelopment() bool { return c.Environment == EnvDevelopment }
