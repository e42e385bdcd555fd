package service

import (
	"time"

	"github.com/himanishpuri/shamzam/internal/match"
	"github.com/himanishpuri/shamzam/internal/provider"
	"github.com/himanishpuri/shamzam/internal/resolve"
	"github.com/himanishpuri/shamzam/pkg/logger"
)

type Config struct {
	DBPath         string
	APIToken       string
	RequestTimeout time.Duration
	Match          match.Policy
	Retry          resolve.Config
	Logger         *logger.Logger
	Provider       provider.Client
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithAPIToken(token string) Option {
	return func(c *Config) {
		c.APIToken = token
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

func WithMatchPolicy(policy match.Policy) Option {
	return func(c *Config) {
		c.Match = policy
	}
}

func WithRetry(cfg resolve.Config) Option {
	return func(c *Config) {
		c.Retry = cfg
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithProvider swaps the AudD client for another provider implementation.
func WithProvider(client provider.Client) Option {
	return func(c *Config) {
		c.Provider = client
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:         "shamzam.sqlite3",
		RequestTimeout: 30 * time.Second,
		Match:          match.DefaultPolicy(),
		Retry:          resolve.DefaultConfig(),
	}
}
