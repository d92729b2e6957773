// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/pdf-lab/pkg/database"
	"github.com/JaimeStill/pdf-lab/pkg/identity"
	"github.com/JaimeStill/pdf-lab/pkg/logging"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"
)

// Persistence backends for the registry and share ledger.
const (
	PersistencePostgres = "postgres"
	PersistenceMemory   = "memory"
)

var databaseEnv = &database.Env{
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
	SSLMode:         "DATABASE_SSL_MODE",
}

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
	Output: "LOGGING_OUTPUT",
}

var storageEnv = &storage.Env{
	Backend:        "STORAGE_BACKEND",
	BasePath:       "STORAGE_BASE_PATH",
	S3Bucket:       "STORAGE_S3_BUCKET",
	S3Region:       "STORAGE_S3_REGION",
	S3Endpoint:     "STORAGE_S3_ENDPOINT",
	S3AccessKey:    "STORAGE_S3_ACCESS_KEY",
	S3SecretKey:    "STORAGE_S3_SECRET_KEY",
	S3UsePathStyle: "STORAGE_S3_USE_PATH_STYLE",
}

var identityEnv = &identity.Env{
	Enabled: "IDENTITY_ENABLED",
	Secret:  "IDENTITY_SECRET",
	Issuer:  "IDENTITY_ISSUER",
}

// Config represents the root service configuration.
type Config struct {
	Server      ServerConfig    `toml:"server"`
	Database    database.Config `toml:"database"`
	Storage     storage.Config  `toml:"storage"`
	Logging     logging.Config  `toml:"logging"`
	API         APIConfig       `toml:"api"`
	Documents   DocumentsConfig `toml:"documents"`
	Shares      SharesConfig    `toml:"shares"`
	Identity    identity.Config `toml:"identity"`
	Persistence string          `toml:"persistence"`
	Version     string          `toml:"version"`

	// Domain is the public origin used to build share URLs, e.g. "https://pdf.example.com".
	Domain string `toml:"domain"`
}

// Load reads and parses the configuration file at path and applies the
// environment-specific overlay found next to it, if any.
// The result is not finalized.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.Persistence == PersistencePostgres {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Documents.Finalize(); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	if err := c.Shares.Finalize(); err != nil {
		return fmt.Errorf("shares: %w", err)
	}
	if err := c.Identity.Finalize(identityEnv); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Persistence != "" {
		c.Persistence = overlay.Persistence
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.Domain != "" {
		c.Domain = overlay.Domain
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Logging.Merge(&overlay.Logging)
	c.API.Merge(&overlay.API)
	c.Documents.Merge(&overlay.Documents)
	c.Shares.Merge(&overlay.Shares)
	c.Identity.Merge(&overlay.Identity)
}

func (c *Config) loadDefaults() {
	if c.Persistence == "" {
		c.Persistence = PersistencePostgres
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv("SERVICE_PERSISTENCE"); v != "" {
		c.Persistence = v
	}
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		c.Version = v
	}
	if v := os.Getenv("SERVICE_DOMAIN"); v != "" {
		c.Domain = v
	}
}

func (c *Config) validate() error {
	switch c.Persistence {
	case PersistencePostgres, PersistenceMemory:
	default:
		return fmt.Errorf("invalid persistence: %s (must be postgres or memory)", c.Persistence)
	}
	c.Domain = strings.TrimSuffix(c.Domain, "/")
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvServiceEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
