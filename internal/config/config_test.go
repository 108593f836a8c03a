package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
sqlite:
  path: /tmp/quiz.db
quiz:
  ttl: 2m
  permissive_options: true
persistence:
  retries: 3
  retry_interval: 250ms
identity:
  jwt_secret: s3cret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, DriverSQLite, cfg.StoreDriver())
	require.True(t, cfg.Quiz.PermissiveOptions)
	require.Equal(t, 3, cfg.Persistence.Retries)
	require.Equal(t, 250*time.Millisecond, TTLDuration(cfg.Persistence.RetryInterval, time.Second))
	require.Equal(t, "s3cret", cfg.Identity.JWTSecret)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestStoreDriver(t *testing.T) {
	tests := map[string]struct {
		cfg  func(*Config)
		want string
	}{
		"default":           {cfg: func(*Config) {}, want: DriverMemory},
		"postgres url":      {cfg: func(c *Config) { c.Postgres.URL = "postgres://x" }, want: DriverPostgres},
		"sqlite path":       {cfg: func(c *Config) { c.SQLite.Path = "quiz.db" }, want: DriverSQLite},
		"explicit wins":     {cfg: func(c *Config) { c.Store.Driver = DriverMemory; c.Postgres.URL = "postgres://x" }, want: DriverMemory},
		"postgres over sql": {cfg: func(c *Config) { c.Postgres.URL = "postgres://x"; c.SQLite.Path = "quiz.db" }, want: DriverPostgres},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var cfg Config
			tc.cfg(&cfg)
			require.Equal(t, tc.want, cfg.StoreDriver())
		})
	}
}

func TestTTLDuration(t *testing.T) {
	require.Equal(t, time.Minute, TTLDuration("", time.Minute))
	require.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	require.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
}
