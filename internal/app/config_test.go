package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no galaxy.yaml is picked up, and
// clears the platform variables.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "galaxy_store", cfg.AppName)
	assert.Equal(t, "galaxy_store_cart", cfg.CartKey())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "1.0", cfg.Storage.Version)
	assert.Equal(t, SourceMock, cfg.Catalog.Source)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.MockLatency)
	assert.Equal(t, 3*time.Second, cfg.Notification.Duration)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestLoadConfig_Env(t *testing.T) {
	chdir(t)
	t.Setenv("GALAXY_APP_NAME", "moon_shop")
	t.Setenv("GALAXY_STORAGE_DRIVER", "memory")
	t.Setenv("GALAXY_NOTIFICATION_DURATION", "5s")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "moon_shop_cart", cfg.CartKey())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Notification.Duration)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: lunar
storage:
  driver: memory
  quota: 1024
catalog:
  source: file
  file: products.json
search:
  debounce: 50ms
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "lunar", cfg.AppName)
	assert.Equal(t, 1024, cfg.Storage.Quota)
	assert.Equal(t, SourceFile, cfg.Catalog.Source)
	assert.Equal(t, "products.json", cfg.Catalog.File)
	assert.Equal(t, 50*time.Millisecond, cfg.Search.Debounce)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	chdir(t)
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_DatabaseURLFallback(t *testing.T) {
	chdir(t)
	t.Setenv("GALAXY_STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/galaxy")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/galaxy", cfg.Storage.DatabaseURL)
	assert.Equal(t, "postgres://localhost/galaxy", cfg.Catalog.DatabaseURL)
}

func validConfig() Config {
	return Config{
		AppName:      "galaxy_store",
		Storage:      StorageConfig{Driver: DriverMemory, Version: "1.0"},
		Catalog:      CatalogConfig{Source: SourceMock, Limit: 30},
		Notification: NotificationConfig{Duration: time.Second},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no app name", mutate: func(c *Config) { c.AppName = "" }, wantErr: "app name"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "etcd" }, wantErr: "unknown storage driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: "database URL"},
		{name: "no version", mutate: func(c *Config) { c.Storage.Version = "" }, wantErr: "storage version"},
		{name: "unknown source", mutate: func(c *Config) { c.Catalog.Source = "ftp" }, wantErr: "unknown catalog source"},
		{name: "file source without file", mutate: func(c *Config) { c.Catalog.Source = SourceFile }, wantErr: "needs a file"},
		{name: "postgres source without url", mutate: func(c *Config) { c.Catalog.Source = SourcePostgres }, wantErr: "database URL"},
		{name: "zero limit", mutate: func(c *Config) { c.Catalog.Limit = 0 }, wantErr: "limit"},
		{name: "zero duration", mutate: func(c *Config) { c.Notification.Duration = 0 }, wantErr: "notification duration"},
		{name: "negative debounce", mutate: func(c *Config) { c.Search.Debounce = -time.Second }, wantErr: "debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
