// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/layer-3/snappa/core"
)

// SupportedAlgorithms lists the accepted JWT_ALGORITHM values
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Config holds all runtime configuration
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":9000"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	// Session credentials
	JWTSecret    string `env:"JWT_SECRET,required"`
	JWTAlgorithm string `env:"JWT_ALGORITHM,required"`
	CookieAuth   bool   `env:"COOKIE_AUTH" envDefault:"false"`

	// DevMode enables the unauthenticated local sign-in route. Never set in production.
	DevMode bool `env:"LOCAL_DEBUGGING" envDefault:"false"`

	// Remote cache and event stream
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Social-identity directory
	NeynarAPIKey      string        `env:"NEYNAR_API_KEY,required"`
	NeynarBaseURL     string        `env:"NEYNAR_BASE_URL" envDefault:"https://api.neynar.com/v2/farcaster"`
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"4h"`

	// Signature verification
	EthRPCURL     string        `env:"ETH_RPC_URL"`
	VerifyTimeout time.Duration `env:"VERIFY_TIMEOUT" envDefault:"10s"`

	// Sign-in rate limit per client IP
	SignInRate  float64 `env:"SIGN_IN_RATE" envDefault:"1"`
	SignInBurst int     `env:"SIGN_IN_BURST" envDefault:"5"`
}

// Load reads the optional dotenv files, then parses and validates the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("%w: failed to load env file: %v", core.ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings env tags cannot express
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is not set", core.ErrConfiguration)
	}

	supported := false
	for _, alg := range SupportedAlgorithms {
		if c.JWTAlgorithm == alg {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: JWT_ALGORITHM %q is not one of %v", core.ErrConfiguration, c.JWTAlgorithm, SupportedAlgorithms)
	}

	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("%w: VERIFY_TIMEOUT must be positive", core.ErrConfiguration)
	}
	if c.SignInRate <= 0 || c.SignInBurst <= 0 {
		return fmt.Errorf("%w: SIGN_IN_RATE and SIGN_IN_BURST must be positive", core.ErrConfiguration)
	}

	return nil
}
