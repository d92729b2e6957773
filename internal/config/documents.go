package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

// DocumentsConfig contains limits applied to uploads and transforms.
type DocumentsConfig struct {
	// MaxUploadSize is the largest accepted document, in human form ("50MiB").
	MaxUploadSize string `toml:"max_upload_size"`

	// MaxMergeSources caps the number of documents in a single merge.
	MaxMergeSources int `toml:"max_merge_sources"`

	// TransformTimeout bounds a single merge, split or text insertion.
	TransformTimeout string `toml:"transform_timeout"`

	maxUploadSizeVal int64
}

// MaxUploadSizeBytes returns the parsed upload limit. Valid after Finalize.
func (c *DocumentsConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// TransformTimeoutDuration parses and returns the transform timeout as a time.Duration.
func (c *DocumentsConfig) TransformTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.TransformTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the documents configuration.
func (c *DocumentsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *DocumentsConfig) Merge(overlay *DocumentsConfig) {
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxMergeSources != 0 {
		c.MaxMergeSources = overlay.MaxMergeSources
	}
	if overlay.TransformTimeout != "" {
		c.TransformTimeout = overlay.TransformTimeout
	}
}

func (c *DocumentsConfig) loadDefaults() {
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MiB"
	}
	if c.MaxMergeSources == 0 {
		c.MaxMergeSources = 20
	}
	if c.TransformTimeout == "" {
		c.TransformTimeout = "2m"
	}
}

func (c *DocumentsConfig) loadEnv() {
	if v := os.Getenv("DOCUMENTS_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("DOCUMENTS_MAX_MERGE_SOURCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxMergeSources = n
		}
	}
	if v := os.Getenv("DOCUMENTS_TRANSFORM_TIMEOUT"); v != "" {
		c.TransformTimeout = v
	}
}

func (c *DocumentsConfig) validate() error {
	size, err := units.RAMInBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	if c.MaxMergeSources < 2 {
		return fmt.Errorf("max_merge_sources must be at least 2")
	}

	d, err := time.ParseDuration(c.TransformTimeout)
	if err != nil {
		return fmt.Errorf("invalid transform_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("transform_timeout must be positive")
	}
	return nil
}
