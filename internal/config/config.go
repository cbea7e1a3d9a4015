package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coolmember/internal/localstore"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	MongoDB  MongoConfig    `mapstructure:"mongodb"`
	Local    LocalConfig    `mapstructure:"local"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// CORSMaxAge is how long, in seconds, browsers may cache a preflight answer.
	CORSMaxAge int `mapstructure:"cors_max_age"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LocalConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
}

func (l LocalConfig) Options() localstore.Options {
	return localstore.Options{Driver: l.Driver, Path: l.Path, RedisURL: l.RedisURL}
}

type FallbackConfig struct {
	Mode       string        `mapstructure:"mode"`
	RetryAfter time.Duration `mapstructure:"retry_after"`
}

type AuthConfig struct {
	AccessSecret  string `mapstructure:"access_secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
	TestLogin     bool   `mapstructure:"test_login"`
}

// Local store drivers.
const (
	DriverSQLite = localstore.DriverSQLite
	DriverRedis  = localstore.DriverRedis
	DriverMemory = localstore.DriverMemory
)

// envAliases binds keys to the plain variable names used in deployment files,
// in addition to the automatic SECTION_KEY form.
var envAliases = map[string][]string{
	"server.port":         {"PORT"},
	"server.host":         {"HOST"},
	"server.cors_max_age": {"CORS_MAX_AGE"},
	"log.level":           {"LOG_LEVEL"},
	"auth.access_secret":  {"JWT_ACCESS_SECRET"},
	"auth.refresh_secret": {"JWT_REFRESH_SECRET"},
	"auth.test_login":     {"TEST_MODE"},
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing precedence. An empty path looks for config.yaml in
// the working directory and ./config, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_max_age", 86400)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", "coolmember")
	v.SetDefault("mongodb.timeout", "5s")
	v.SetDefault("local.driver", DriverSQLite)
	v.SetDefault("local.path", "coolmember-local.db")
	v.SetDefault("local.redis_url", "")
	v.SetDefault("fallback.mode", "per-call")
	v.SetDefault("fallback.retry_after", "30s")
	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.test_login", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Local.Driver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.Local.RedisURL == "" {
			return errors.New("local.redis_url is required when local.driver is redis")
		}
	default:
		return fmt.Errorf("unknown local.driver %q", c.Local.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.CORSMaxAge < 0 {
		return fmt.Errorf("invalid server.cors_max_age %d", c.Server.CORSMaxAge)
	}
	if c.MongoDB.Timeout <= 0 {
		return fmt.Errorf("invalid mongodb.timeout %s", c.MongoDB.Timeout)
	}
	if c.Fallback.RetryAfter < 0 {
		return fmt.Errorf("invalid fallback.retry_after %s", c.Fallback.RetryAfter)
	}
	return nil
}
