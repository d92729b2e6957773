package config

import (
	"fmt"
	"os"
	"time"
)

// SharesConfig contains share link issuance limits.
type SharesConfig struct {
	// MaxTTL caps how far in the future a link may expire. Empty or "0" means unbounded.
	MaxTTL string `toml:"max_ttl"`
}

// MaxTTLDuration parses and returns the maximum link lifetime. Zero means unbounded.
func (c *SharesConfig) MaxTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxTTL)
	return d
}

// Finalize loads environment overrides and validates the shares configuration.
func (c *SharesConfig) Finalize() error {
	if v := os.Getenv("SHARES_MAX_TTL"); v != "" {
		c.MaxTTL = v
	}

	if c.MaxTTL == "" {
		return nil
	}
	d, err := time.ParseDuration(c.MaxTTL)
	if err != nil {
		return fmt.Errorf("invalid max_ttl: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("max_ttl cannot be negative")
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *SharesConfig) Merge(overlay *SharesConfig) {
	if overlay.MaxTTL != "" {
		c.MaxTTL = overlay.MaxTTL
	}
}
