// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config resolves the server settings once at process start.
//
// Sources are layered with viper, lowest precedence first: built-in
// defaults, an optional vecinity.yaml, a .env file, process environment,
// and finally explicitly set command-line flags. The result is a
// ServerConfig snapshot that is never mutated after Load returns.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Keys double as environment variable names (upper-cased by viper).
const (
	KeyPort            = "port"
	KeyPublicURL       = "public_url"
	KeyEnvironment     = "node_env"
	KeyCORSOrigin      = "cors_origin"
	KeyRateLimitWindow = "rate_limit_window"
	KeyRateLimitMax    = "rate_limit_max"
	KeyLogLevel        = "log_level"
	KeyAppLogLevel     = "app_log_level"
	KeyLanguage        = "language"
	KeyUploadDir       = "upload_dir"
	KeyBodyLimit       = "body_limit_bytes"
	KeyTrustProxy      = "trust_proxy"
	KeyShutdownTimeout = "shutdown_timeout_seconds"
	KeyDBType          = "db_type"
	KeyDBHost          = "db_host"
	KeyDBPort          = "db_port"
	KeyDBName          = "db_name"
	KeyDBUser          = "db_user"
	KeyDBPassword      = "db_password"
	KeyDBDSN           = "db_dsn"
	KeyDBMaxOpen       = "db_max_open_conns"
	KeyDBMaxIdle       = "db_max_idle_conns"
	KeyDBConnLifetime  = "db_conn_max_lifetime_seconds"
)

// DefaultBodyLimit caps JSON and form bodies.
const DefaultBodyLimit = 10 << 20

// DefaultCORSOrigins is the allow-list used when CORS_ORIGIN is unset.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://viciniti.netlify.app",
}

// Defaults returns the built-in value for every key.
func Defaults() map[string]any {
	return map[string]any{
		KeyPort:            5000,
		KeyPublicURL:       "",
		KeyEnvironment:     "development",
		KeyCORSOrigin:      strings.Join(DefaultCORSOrigins, ","),
		KeyRateLimitWindow: 15,
		KeyRateLimitMax:    100,
		KeyLogLevel:        "combined",
		KeyAppLogLevel:     "info",
		KeyLanguage:        "es",
		KeyUploadDir:       "uploads",
		KeyBodyLimit:       DefaultBodyLimit,
		KeyTrustProxy:      false,
		KeyShutdownTimeout: 10,
		KeyDBType:          "mysql",
		KeyDBHost:          "localhost",
		KeyDBPort:          3306,
		KeyDBName:          "vecinity",
		KeyDBUser:          "root",
		KeyDBPassword:      "",
		KeyDBDSN:           "",
		KeyDBMaxOpen:       25,
		KeyDBMaxIdle:       25,
		KeyDBConnLifetime:  300,
	}
}

// DatabaseConfig describes the storage connection.
type DatabaseConfig struct {
	Type            string        `yaml:"type"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	RawDSN          string        `yaml:"dsn,omitempty"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ServerConfig is the resolved settings snapshot.
type ServerConfig struct {
	Port                   int            `yaml:"port"`
	PublicURL              string         `yaml:"public_url"`
	Environment            string         `yaml:"environment"`
	CORSOrigins            []string       `yaml:"cors_origins"`
	RateLimitWindowMinutes float64        `yaml:"rate_limit_window_minutes"`
	RateLimitMax           int            `yaml:"rate_limit_max"`
	LogLevel               string         `yaml:"log_level"`
	AppLogLevel            string         `yaml:"app_log_level"`
	Language               string         `yaml:"language"`
	UploadDir              string         `yaml:"upload_dir"`
	BodyLimitBytes         int64          `yaml:"body_limit_bytes"`
	TrustProxy             bool           `yaml:"trust_proxy"`
	ShutdownTimeout        time.Duration  `yaml:"shutdown_timeout"`
	Database               DatabaseConfig `yaml:"database"`
}

// RateLimitWindow returns the fixed throttling window.
func (c *ServerConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMinutes * float64(time.Minute))
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// HealthURL is the public health-check URL logged at startup.
func (c *ServerConfig) HealthURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/api/health"
}

// IsProduction reports whether NODE_ENV is production.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DSN returns the driver connection string. DB_DSN wins when set.
func (c *ServerConfig) DSN() string {
	d := c.Database
	if d.RawDSN != "" {
		return d.RawDSN
	}
	switch d.Type {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   "/" + d.Name,
		}
		return u.String()
	case "sqlite":
		return d.Name
	default:
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
		mc.DBName = d.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	if system {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.Getenv("ProgramData"), "Vecinity", "vecinity.yaml"), nil
		}
		return "/etc/vecinity/vecinity.yaml", nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "vecinity", "vecinity.yaml"), nil
}

// Load resolves a ServerConfig. cmd may be nil; when given, its changed
// flags override every other source. configPath, when non-nil, names a
// YAML file that must exist.
func Load(cmd *cobra.Command, configPath *string) (*ServerConfig, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("vecinity")
	v.SetConfigType("yaml")
	if configPath != nil {
		v.SetConfigFile(*configPath)
	}
	if p, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	if p, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != nil || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*ServerConfig, error) {
	c := &ServerConfig{
		Port:                   v.GetInt(KeyPort),
		PublicURL:              strings.TrimSpace(v.GetString(KeyPublicURL)),
		Environment:            strings.TrimSpace(v.GetString(KeyEnvironment)),
		CORSOrigins:            splitList(v.GetString(KeyCORSOrigin)),
		RateLimitWindowMinutes: v.GetFloat64(KeyRateLimitWindow),
		RateLimitMax:           v.GetInt(KeyRateLimitMax),
		LogLevel:               strings.TrimSpace(v.GetString(KeyLogLevel)),
		AppLogLevel:            v.GetString(KeyAppLogLevel),
		Language:               v.GetString(KeyLanguage),
		UploadDir:              v.GetString(KeyUploadDir),
		BodyLimitBytes:         v.GetInt64(KeyBodyLimit),
		TrustProxy:             v.GetBool(KeyTrustProxy),
		ShutdownTimeout:        time.Duration(v.GetInt(KeyShutdownTimeout)) * time.Second,
		Database: DatabaseConfig{
			Type:            strings.ToLower(strings.TrimSpace(v.GetString(KeyDBType))),
			Host:            v.GetString(KeyDBHost),
			Port:            v.GetInt(KeyDBPort),
			Name:            v.GetString(KeyDBName),
			User:            v.GetString(KeyDBUser),
			Password:        v.GetString(KeyDBPassword),
			RawDSN:          v.GetString(KeyDBDSN),
			MaxOpenConns:    v.GetInt(KeyDBMaxOpen),
			MaxIdleConns:    v.GetInt(KeyDBMaxIdle),
			ConnMaxLifetime: time.Duration(v.GetInt(KeyDBConnLifetime)) * time.Second,
		},
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "combined"
	}
	if c.PublicURL == "" {
		c.PublicURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = append([]string(nil), DefaultCORSOrigins...)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the server cannot run with.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.RateLimitWindowMinutes <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.RateLimitWindowMinutes))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax))
	}
	if c.BodyLimitBytes <= 0 {
		errs = append(errs, fmt.Errorf("BODY_LIMIT_BYTES must be positive, got %d", c.BodyLimitBytes))
	}
	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Marshal renders c as YAML with the database password masked.
func Marshal(c *ServerConfig) ([]byte, error) {
	redacted := *c
	if redacted.Database.Password != "" {
		redacted.Database.Password = "********"
	}
	return yaml.Marshal(&redacted)
}

// Write dumps c as YAML to path. The database password is masked.
func Write(c *ServerConfig, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o600)
}
