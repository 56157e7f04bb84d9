package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the link router
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"link-router-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"history.changed"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"link-routers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"screen.display"`
	NoticeStream  string        `env:"NOTICE_STREAM" envDefault:"screen.notice"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Change services
	ModuleBaseURL string `env:"MODULE_BASE_URL" envDefault:"http://localhost:8080/"`

	// Routing configuration
	NotFoundPolicy string `env:"NOT_FOUND_POLICY" envDefault:"notice"`
	RedirectToken  string `env:"REDIRECT_TOKEN" envDefault:"mine"`
	NoticeTemplate string `env:"NOTICE_TEMPLATE"`
	RewriteRules   string `env:"REWRITE_RULES"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.NoticeStream == "" {
		return fmt.Errorf("NOTICE_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must be non-negative")
	}

	if c.ModuleBaseURL == "" {
		return fmt.Errorf("MODULE_BASE_URL is required")
	}

	switch router.Policy(c.NotFoundPolicy) {
	case router.PolicyNotice:
	case router.PolicyRedirect:
		if c.RedirectToken == "" {
			return fmt.Errorf("REDIRECT_TOKEN is required when NOT_FOUND_POLICY is redirect")
		}
	default:
		return fmt.Errorf("NOT_FOUND_POLICY must be one of: notice, redirect")
	}

	if _, err := c.Rules(); err != nil {
		return err
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// Rules decodes REWRITE_RULES, a JSON list of {"condition", "target"} objects
func (c *Config) Rules() ([]router.Rule, error) {
	if c.RewriteRules == "" {
		return nil, nil
	}

	var rules []router.Rule
	if err := json.Unmarshal([]byte(c.RewriteRules), &rules); err != nil {
		return nil, fmt.Errorf("REWRITE_RULES must be a JSON list of rules: %w", err)
	}
	return rules, nil
}

// RouterConfig returns the routing configuration
func (c *Config) RouterConfig() (router.Config, error) {
	rules, err := c.Rules()
	if err != nil {
		return router.Config{}, err
	}

	return router.Config{
		Rules:          rules,
		NotFound:       router.Policy(c.NotFoundPolicy),
		RedirectToken:  c.RedirectToken,
		NoticeTemplate: c.NoticeTemplate,
	}, nil
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, NoticeStream=%s, ModuleBaseURL=%s, NotFoundPolicy=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.NoticeStream,
		c.ModuleBaseURL,
		c.NotFoundPolicy,
		c.HealthPort,
		c.LogLevel,
	)
}
