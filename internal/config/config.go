package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AuditConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RetentionDays   int  `mapstructure:"retention_days"`
	BufferSize      int  `mapstructure:"buffer_size"`
	FlushIntervalMs int  `mapstructure:"flush_interval_ms"`
}

type CacheConfig struct {
	MaxCostBytes int64 `mapstructure:"max_cost_bytes"`
}

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Audit     AuditConfig    `mapstructure:"audit"`
	JWTSecret string         `mapstructure:"jwt_secret"`
	LogLevel  string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL is the public backend origin webhook and OIDC callback URLs are built on.
	BaseURL string `mapstructure:"base_url"`
	// FrontOrigin is the web app origin registered as the OIDC authorized URI.
	FrontOrigin string `mapstructure:"front_origin"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		if d.Name == ":memory:" {
			return ":memory:"
		}
		return strings.TrimRight(d.Path, "/") + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.front_origin", "http://localhost:3000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "trigger_settings")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("jwt_secret", "changeme-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache.max_cost_bytes", 8<<20)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.retention_days", 30)
	v.SetDefault("audit.buffer_size", 500)
	v.SetDefault("audit.flush_interval_ms", 100)
}

// Load reads app.yaml from the working directory (or the repo root) and
// overlays environment variables, e.g. SERVER_BASE_URL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	cfg.Server.FrontOrigin = strings.TrimRight(cfg.Server.FrontOrigin, "/")

	return &cfg, nil
}
