package identity

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls bearer token verification.
type Config struct {
	// Enabled turns on token verification. When disabled every request is anonymous.
	Enabled bool `toml:"enabled"`

	// Secret is the HMAC key used to verify HS256 tokens.
	Secret string `toml:"secret"`

	// Issuer, when set, must match the token's iss claim.
	Issuer string `toml:"issuer"`
}

// Env maps environment variable names for identity configuration.
type Env struct {
	Enabled string
	Secret  string
	Issuer  string
}

// Finalize loads environment overrides and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
}

func (c *Config) validate() error {
	if c.Enabled && len(c.Secret) < 16 {
		return fmt.Errorf("secret must be at least 16 bytes when identity is enabled")
	}
	return nil
}
