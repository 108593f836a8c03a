package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers understood by the start command.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL               string `yaml:"ttl"`
		PermissiveOptions bool   `yaml:"permissive_options"`
	} `yaml:"quiz"`
	Persistence struct {
		Retries       int    `yaml:"retries"`
		RetryInterval string `yaml:"retry_interval"`
	} `yaml:"persistence"`
	Identity struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"identity"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StoreDriver resolves the record store driver. An explicit driver wins;
// otherwise a configured Postgres URL or SQLite path selects that store.
func (c Config) StoreDriver() string {
	switch {
	case c.Store.Driver != "":
		return c.Store.Driver
	case c.Postgres.URL != "":
		return DriverPostgres
	case c.SQLite.Path != "":
		return DriverSQLite
	default:
		return DriverMemory
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
