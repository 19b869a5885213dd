package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names recognised by the service.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Database drivers supported by the user store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// minSessionSecretLength is the minimum accepted length of session.secret.
const minSessionSecretLength = 32

// Config is the root configuration structure for gatekeeper.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Environment string         `yaml:"environment"`
	Database    DatabaseConfig `yaml:"database"`
	API         APIConfig      `yaml:"api"`
	Session     SessionConfig  `yaml:"session"`
	Gate        GateConfig     `yaml:"gate"`
	Auth        AuthConfig     `yaml:"auth"`
	MQTT        MQTTConfig     `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig `yaml:"influxdb"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Web         WebConfig      `yaml:"web"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig selects and configures the user store backend.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite database settings.
type SQLiteConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	TLS          TLSConfig        `yaml:"tls"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	CORS         CORSConfig       `yaml:"cors"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SessionConfig controls the encrypted session cookie.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	Secret     string `yaml:"secret"`
	// TTL is the session lifetime in hours.
	TTL int `yaml:"ttl"`
	// Secure overrides the environment-derived Secure attribute when set.
	Secure   *bool  `yaml:"secure,omitempty"`
	SameSite string `yaml:"same_site"`
}

// GateConfig controls the page-level authentication gate.
type GateConfig struct {
	LoginPath      string   `yaml:"login_path"`
	HomePath       string   `yaml:"home_path"`
	ForbiddenPath  string   `yaml:"forbidden_path"`
	PublicPrefixes []string `yaml:"public_prefixes"`
}

// AuthConfig contains settings for the bootstrap root account.
type AuthConfig struct {
	Root RootAccountConfig `yaml:"root"`
}

// RootAccountConfig describes the account created on first boot.
// An empty password causes a random one to be generated and logged once.
type RootAccountConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// WebConfig controls where page assets are served from.
// An empty Dir serves the UI embedded in the binary.
type WebConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GATEKEEPER_SECTION_KEY
// For example: GATEKEEPER_SESSION_SECRET, GATEKEEPER_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Environment: EnvProduction,
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{
				Path:        "./data/gatekeeper.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MaxBodyBytes: 1 << 20,
		},
		Session: SessionConfig{
			CookieName: "session",
			TTL:        14 * 24,
			SameSite:   "lax",
		},
		Gate: GateConfig{
			LoginPath:     "/login",
			HomePath:      "/",
			ForbiddenPath: "/403",
			PublicPrefixes: []string{
				"/_next",
				"/favicon.ico",
				"/public",
				"/images",
				"/api/public",
			},
		},
		Auth: AuthConfig{
			Root: RootAccountConfig{
				Name:  "Administrator",
				Email: "admin@localhost",
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "gatekeeper",
			},
			QoS:         1,
			TopicPrefix: "gatekeeper",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "gatekeeper",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GATEKEEPER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GATEKEEPER_ENV"); v != "" {
		cfg.Environment = v
	}

	// Database
	if v := os.Getenv("GATEKEEPER_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("GATEKEEPER_DATABASE_PATH"); v != "" {
		cfg.Database.SQLite.Path = v
	}
	if v := os.Getenv("GATEKEEPER_DATABASE_URL"); v != "" {
		cfg.Database.Postgres.URL = v
	}

	// API
	if v := os.Getenv("GATEKEEPER_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Session secret (IMPORTANT: always set via environment in production)
	if v := os.Getenv("GATEKEEPER_SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}

	// Root account
	if v := os.Getenv("GATEKEEPER_ROOT_EMAIL"); v != "" {
		cfg.Auth.Root.Email = v
	}
	if v := os.Getenv("GATEKEEPER_ROOT_PASSWORD"); v != "" {
		cfg.Auth.Root.Password = v
	}

	// MQTT
	if v := os.Getenv("GATEKEEPER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GATEKEEPER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GATEKEEPER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GATEKEEPER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		errs = append(errs, "environment must be development or production")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.URL == "" {
			errs = append(errs, "database.postgres.url is required (set GATEKEEPER_DATABASE_URL)")
		}
	default:
		errs = append(errs, "database.driver must be sqlite or postgres")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Session.Secret == "" {
		errs = append(errs, "session.secret is required (set GATEKEEPER_SESSION_SECRET environment variable)")
	} else if len(c.Session.Secret) < minSessionSecretLength {
		errs = append(errs, "session.secret must be at least 32 characters")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "session.cookie_name is required")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "", "lax", "strict", "none":
	default:
		errs = append(errs, "session.same_site must be lax, strict or none")
	}

	for _, p := range []struct{ key, value string }{
		{"gate.login_path", c.Gate.LoginPath},
		{"gate.home_path", c.Gate.HomePath},
		{"gate.forbidden_path", c.Gate.ForbiddenPath},
	} {
		if !strings.HasPrefix(p.value, "/") {
			errs = append(errs, p.key+" must be an absolute path")
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CookieSecure reports whether the session cookie carries the Secure attribute.
// It is on everywhere except local development unless explicitly overridden.
func (c *Config) CookieSecure() bool {
	if c.Session.Secure != nil {
		return *c.Session.Secure
	}
	return c.Environment != EnvDevelopment
}

// SessionTTL returns the session lifetime as a Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Hour
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
