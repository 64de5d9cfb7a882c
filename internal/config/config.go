package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the service reads from the environment.
// .env is loaded by cmd/web before Process runs; prod uses real env vars.
type Config struct {
	Env        string `split_words:"true" default:"development"`
	ListenAddr string `split_words:"true" default:":8080"`

	// Storefront origin the shopify client talks to, e.g. https://marble-hills.myshopify.com
	StorefrontURL string `split_words:"true" required:"true"`

	// HMAC secret for the builder session cookie.
	SessionSecret string `split_words:"true" required:"true"`
	CookieSecure  bool   `split_words:"true" default:"false"`

	DBDSN    string `envconfig:"DB_DSN"`
	RedisURL string `split_words:"true" required:"true"`

	LogLevel  string `split_words:"true" default:"info"`
	LogFormat string `split_words:"true" default:"text"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MH", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.StorefrontURL = strings.TrimRight(cfg.StorefrontURL, "/")
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
