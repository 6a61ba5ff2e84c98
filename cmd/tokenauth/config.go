package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/tokenauth/internal/logger"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultTokenTTL      = 48 * time.Hour
	defaultAuthTimeout   = 3 * time.Second
	defaultPurgeInterval = time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	// If empty tokens and users are kept in memory and lost on restart
	DatabaseDSN string

	// Secret key tokens are hashed with before storing
	// Changing it invalidates all issued tokens
	SecretKey string

	// Environment
	Environment string

	// Lifetime of issued tokens
	TokenTTL time.Duration

	// Max time to authenticate one request
	AuthTimeout time.Duration

	// Redis url to share token cache between instances. No redis cache if empty
	RedisURL string

	// Size of in-process token cache. No in-process cache if zero
	CacheSize int

	// How often expired tokens are deleted. Never if zero
	PurgeInterval time.Duration

	// Address to serve prometheus metrics on. Not served if empty
	MetricsAddr string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		Environment:   defaultEnvironment,
		TokenTTL:      defaultTokenTTL,
		AuthTimeout:   defaultAuthTimeout,
		PurgeInterval: defaultPurgeInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			i, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = i
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"SECRET_KEY":      setString(&c.SecretKey),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"TOKEN_TTL":       setDuration(&c.TokenTTL),
		"AUTH_TIMEOUT":    setDuration(&c.AuthTimeout),
		"REDIS_ADDRESS":   setString(&c.RedisURL),
		"CACHE_SIZE":      setInt(&c.CacheSize),
		"PURGE_INTERVAL":  setDuration(&c.PurgeInterval),
		"METRICS_ADDRESS": setString(&c.MetricsAddr),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("tokenauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string. In-memory storage if empty")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVarP(&c.TokenTTL, "token-ttl", "t", c.TokenTTL, "Issued token lifetime")
	fs.DurationVar(&c.AuthTimeout, "auth-timeout", c.AuthTimeout, "Max time to authenticate request")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis url for shared token cache (redis://host:port/db)")
	fs.IntVar(&c.CacheSize, "cache-size", c.CacheSize, "In-process token cache size. Disabled if zero")
	fs.DurationVar(&c.PurgeInterval, "purge-interval", c.PurgeInterval, "Expired tokens purge interval. Disabled if zero")
	fs.StringVarP(&c.MetricsAddr, "metrics-address", "m", c.MetricsAddr, "Prometheus metrics listen address. Disabled if empty")

	return fs.Parse(args)
}

// Validate options that has no sensible default
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must be set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.CacheSize < 0 {
		errs = append(errs, errors.New("cache size must not be negative"))
	}
	if c.PurgeInterval < 0 {
		errs = append(errs, errors.New("purge interval must not be negative"))
	}

	return errors.Join(errs...)
}
