package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath      = "config/config.yaml"
	defaultAddress         = ":4001"
	defaultProviderTimeout = 5 * time.Second
	defaultSweepInterval   = 24 * time.Hour
	defaultSearchLimit     = 12
	defaultSearchCap       = 50
	defaultRadiusKm        = 25
	maxDistanceMiles       = 200
)

// VisibilityPolicy selects which workers are eligible to appear in search results.
type VisibilityPolicy string

const (
	VisibilityStatusOnly            VisibilityPolicy = "status_only"
	VisibilityStatusAndSubscription VisibilityPolicy = "status_and_subscription"
)

// IsSubscriptionGated reports whether the policy requires a live subscription.
func (p VisibilityPolicy) IsSubscriptionGated() bool {
	return p == VisibilityStatusAndSubscription
}

// SkillMatch selects how requested skills are compared against worker skills.
type SkillMatch string

const (
	SkillMatchExact     SkillMatch = "exact"
	SkillMatchSubstring SkillMatch = "substring"
)

// Config holds runtime configuration for the whole application.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Geocoding struct {
		APIKey         string        `yaml:"api_key"`
		TimeoutSeconds int           `yaml:"timeout_seconds"`
		Timeout        time.Duration `yaml:"-"`
	} `yaml:"geocoding"`
	Search struct {
		VisibilityPolicy VisibilityPolicy `yaml:"visibility_policy"`
		SkillMatch       SkillMatch       `yaml:"skill_match"`
		DefaultRadiusKm  float64          `yaml:"default_radius_km"`
		MaxDistanceMiles float64          `yaml:"max_distance_miles"`
		DefaultLimit     int              `yaml:"default_limit"`
		MaxLimit         int              `yaml:"max_limit"`
	} `yaml:"search"`
	Sweeper struct {
		IntervalSeconds int           `yaml:"interval_seconds"`
		Interval        time.Duration `yaml:"-"`
	} `yaml:"sweeper"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LoadConfig reads the YAML config file, applies environment overrides and
// validates the result. The config path comes from CONFIG_PATH when set.
func LoadConfig() (Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.Geocoding.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SEARCH_VISIBILITY_POLICY"); v != "" {
		cfg.Search.VisibilityPolicy = VisibilityPolicy(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("SEARCH_SKILL_MATCH"); v != "" {
		cfg.Search.SkillMatch = SkillMatch(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("GEOCODING_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Geocoding.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("SWEEPER_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Sweeper.IntervalSeconds = secs
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgx"
	}
	if cfg.Search.VisibilityPolicy == "" {
		cfg.Search.VisibilityPolicy = VisibilityStatusAndSubscription
	}
	if cfg.Search.SkillMatch == "" {
		cfg.Search.SkillMatch = SkillMatchExact
	}
	if cfg.Search.DefaultRadiusKm <= 0 {
		cfg.Search.DefaultRadiusKm = defaultRadiusKm
	}
	if cfg.Search.MaxDistanceMiles <= 0 {
		cfg.Search.MaxDistanceMiles = maxDistanceMiles
	}
	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = defaultSearchLimit
	}
	if cfg.Search.MaxLimit <= 0 {
		cfg.Search.MaxLimit = defaultSearchCap
	}
	if cfg.Geocoding.TimeoutSeconds > 0 {
		cfg.Geocoding.Timeout = time.Duration(cfg.Geocoding.TimeoutSeconds) * time.Second
	} else {
		cfg.Geocoding.Timeout = defaultProviderTimeout
	}
	if cfg.Sweeper.IntervalSeconds > 0 {
		cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	} else {
		cfg.Sweeper.Interval = defaultSweepInterval
	}
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required (config database.url or DATABASE_URL)")
	}
	switch cfg.Search.VisibilityPolicy {
	case VisibilityStatusOnly, VisibilityStatusAndSubscription:
	default:
		return fmt.Errorf("unknown visibility policy %q", cfg.Search.VisibilityPolicy)
	}
	switch cfg.Search.SkillMatch {
	case SkillMatchExact, SkillMatchSubstring:
	default:
		return fmt.Errorf("unknown skill match mode %q", cfg.Search.SkillMatch)
	}
	if cfg.Search.DefaultLimit > cfg.Search.MaxLimit {
		return fmt.Errorf("search default_limit must be <= max_limit")
	}
	return nil
}
