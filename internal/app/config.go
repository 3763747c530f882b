package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Catalog sources.
const (
	SourceMock     = "mock"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (GALAXY_ prefix) or YAML config files.
type Config struct {
	AppName      string             `yaml:"app_name" default:"galaxy_store" usage:"Application name, prefixes storage keys"`
	Storage      StorageConfig      `yaml:"storage"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Notification NotificationConfig `yaml:"notification"`
	Search       SearchConfig       `yaml:"search"`
	Server       ServerConfig       `yaml:"server"`
}

// StorageConfig selects the durable key-value backend of the cart.
type StorageConfig struct {
	Driver      string      `yaml:"driver" default:"sqlite" usage:"Storage driver: memory, sqlite, redis or postgres"`
	Path        string      `yaml:"path" default:"galaxy_store.db" usage:"SQLite database file"`
	MaxPages    int         `yaml:"max_pages" default:"0" usage:"SQLite page cap, 0 for no cap"`
	Quota       int         `yaml:"quota" default:"5242880" usage:"Memory driver quota in bytes"`
	Version     string      `yaml:"version" default:"1.0" usage:"Persisted envelope version"`
	DatabaseURL string      `yaml:"database_url" usage:"PostgreSQL connection URL for the postgres driver"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis storage driver.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379" usage:"Redis address"`
	Password string `yaml:"password" usage:"Redis password"`
	DB       int    `yaml:"db" default:"0" usage:"Redis database"`
	Prefix   string `yaml:"prefix" default:"galaxy:" usage:"Key prefix"`
}

// CatalogConfig selects where products come from.
type CatalogConfig struct {
	Source      string        `yaml:"source" default:"mock" usage:"Catalog source: mock, file, http or postgres"`
	File        string        `yaml:"file" usage:"Catalog file (.json or .json.gz) for the file source"`
	BaseURL     string        `yaml:"base_url" default:"https://dummyjson.com" usage:"Product API base URL"`
	Limit       int           `yaml:"limit" default:"30" usage:"Products requested per list call"`
	Timeout     time.Duration `yaml:"timeout" default:"10s" usage:"Product API request timeout"`
	MockLatency time.Duration `yaml:"mock_latency" default:"500ms" usage:"Simulated latency of the mock source"`
	DatabaseURL string        `yaml:"database_url" usage:"PostgreSQL connection URL for the postgres source"`
}

// NotificationConfig controls the notification lifetime.
type NotificationConfig struct {
	Duration time.Duration `yaml:"duration" default:"3s" usage:"How long a notification stays visible"`
}

// SearchConfig controls the search box debounce.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce" default:"300ms" usage:"Quiet window before a typed search term applies"`
}

// ServerConfig configures the view bridge HTTP server.
type ServerConfig struct {
	Addr     string         `yaml:"addr" default:"127.0.0.1:8080" usage:"Listen address"`
	CORS     CORSConfig     `yaml:"cors"`
	Graceful GracefulConfig `yaml:"graceful"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `yaml:"origins" usage:"Allowed CORS origins, empty for any"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `yaml:"readiness_delay" default:"1s"  usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s" usage:"Maximum shutdown duration"`
}

// DefaultConfigFiles are tried in order when no explicit file is given.
var DefaultConfigFiles = []string{"galaxy.yaml", "/etc/galaxy/config.yaml"}

// LoadConfig loads configuration from YAML files and GALAXY_* environment
// variables. A non-empty path replaces the default file list and must exist.
func LoadConfig(path string) (*Config, error) {
	files := DefaultConfigFiles
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
		files = []string{path}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "GALAXY",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CartKey is the storage key of the cart.
func (c *Config) CartKey() string {
	return c.AppName + "_cart"
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return errors.New("app name is required")
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("postgres storage needs a database URL: set GALAXY_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Version == "" {
		return errors.New("storage version is required")
	}

	switch c.Catalog.Source {
	case SourceMock, SourceHTTP:
	case SourceFile:
		if c.Catalog.File == "" {
			return errors.New("file catalog source needs a file")
		}
	case SourcePostgres:
		if c.Catalog.DatabaseURL == "" {
			return errors.New("postgres catalog source needs a database URL: set GALAXY_CATALOG_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Catalog.Limit <= 0 {
		return errors.Errorf("catalog limit must be positive, got %d", c.Catalog.Limit)
	}

	if c.Notification.Duration <= 0 {
		return errors.New("notification duration must be positive")
	}
	if c.Search.Debounce < 0 {
		return errors.New("search debounce must not be negative")
	}
	return nil
}

// applyPlatformDefaults maps DATABASE_URL and PORT, as set by hosting
// platforms, onto the GALAXY_ configuration.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		if c.Storage.DatabaseURL == "" {
			c.Storage.DatabaseURL = v
		}
		if c.Catalog.DatabaseURL == "" {
			c.Catalog.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Server.Addr == "127.0.0.1:8080" {
		c.Server.Addr = "0.0.0.0:" + port
	}
}
