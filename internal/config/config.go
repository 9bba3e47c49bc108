package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "ERP"
	defaultHTTPAddress      = "0.0.0.0:5000"
	defaultDatabasePath     = "erp.db"
	defaultLogLevel         = "info"
	defaultFallbackCapacity = 87.0
	defaultCacheTTLSeconds  = 60
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	LogLevel     string
	// FallbackCapacity is the theoretical-production denominator used when
	// no snapshot, entry value, or machine value is available. Empirically
	// chosen default; override via production.fallback_capacity.
	FallbackCapacity float64
	MachineCacheTTL  time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("production.fallback_capacity", defaultFallbackCapacity)
	configViper.SetDefault("machines.cache_ttl_seconds", defaultCacheTTLSeconds)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		FallbackCapacity: configViper.GetFloat64("production.fallback_capacity"),
		MachineCacheTTL:  time.Duration(configViper.GetInt("machines.cache_ttl_seconds")) * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.FallbackCapacity <= 0 {
		return fmt.Errorf("production.fallback_capacity must be positive")
	}
	if c.MachineCacheTTL <= 0 {
		return fmt.Errorf("machines.cache_ttl_seconds must be positive")
	}
	return nil
}
