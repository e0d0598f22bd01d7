package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything rolegate reads from the environment
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig is the HTTPS listener
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TLS             TLSConfig
}

// TLSConfig holds the server certificate and the CA bundle used to verify
// consumer client certificates.
type TLSConfig struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	ClientCAFile string // Optional: when empty, client certificates are not requested
}

// DatabaseConfig locates the user and consumer store. ConnectionString
// (DATABASE_URL) wins over the individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds credential handling configuration
type AuthConfig struct {
	// ClientCertHeader names the header a TLS-terminating proxy uses to forward
	// the consumer certificate as PEM. Empty disables header lookup.
	ClientCertHeader string
	BcryptCost       int

	// Bootstrap admin created at startup when it does not exist yet
	BootstrapAdminLogin    string
	BootstrapAdminPassword string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: TLSConfig{
				Enabled:      getEnvAsBool("TLS_ENABLED", true),
				CertFile:     getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:      getEnv("TLS_KEY_FILE", "certs/key.pem"),
				ClientCAFile: getEnv("TLS_CLIENT_CA_FILE", ""),
			},
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			ClientCertHeader:       getEnv("AUTH_CLIENT_CERT_HEADER", ""),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 10),
			BootstrapAdminLogin:    getEnv("BOOTSTRAP_ADMIN_LOGIN", ""),
			BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the gate cannot run with
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return err
	}

	// bcrypt accepts costs in [4, 31]
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if (c.Auth.BootstrapAdminLogin == "") != (c.Auth.BootstrapAdminPassword == "") {
		return fmt.Errorf("bootstrap admin requires both BOOTSTRAP_ADMIN_LOGIN and BOOTSTRAP_ADMIN_PASSWORD")
	}

	// Header certificates are not chain-checked against the client CA.
	if c.Auth.ClientCertHeader != "" && c.Server.TLS.ClientCAFile != "" {
		return fmt.Errorf("client certificates must come either from TLS or from a proxy header, not both")
	}

	if c.IsProduction() && !c.Server.TLS.Enabled {
		return fmt.Errorf("TLS must be enabled in production")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction reports whether ENVIRONMENT names production
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "production", "prod":
		return true
	}
	return false
}

func (c *DatabaseConfig) validate() error {
	switch {
	case c.ConnectionString != "":
		return nil
	case c.Host == "":
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	case c.User == "":
		return fmt.Errorf("database user is required")
	case c.Database == "":
		return fmt.Errorf("database name is required")
	}
	return nil
}

// DSN is the lib/pq connection string: DATABASE_URL verbatim, or key=value
// pairs built from the DB_* fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	pairs := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"sslmode=" + c.SSLMode,
	}
	return strings.Join(pairs, " ")
}

// LogString names the database without credentials
func (c *DatabaseConfig) LogString() string {
	host, port, name := c.Host, strconv.Itoa(c.Port), c.Database
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err != nil {
			return "host=<from DATABASE_URL>"
		}
		host, port, name = u.Hostname(), u.Port(), strings.TrimPrefix(u.Path, "/")
		if port == "" {
			port = "5432"
		}
	}
	return fmt.Sprintf("host=%s port=%s database=%s", host, port, name)
}

// loadDatabaseConfig reads DATABASE_URL, falling back to the DB_* fields.
// Pool sizing applies either way.
func loadDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{
		ConnectionString: getEnv("DATABASE_URL", ""),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
	if cfg.ConnectionString != "" {
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "rolegate")
	cfg.Password = getEnv("DB_PASSWORD", "")
	cfg.Database = getEnv("DB_NAME", "rolegate")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
}

// Address is the listen address for http.Server
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// getPort prefers PORT, as set by most container platforms, over SERVER_PORT
func getPort() int {
	return getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", 8443))
}

// envOr parses the variable named key, returning def when it is unset or
// does not parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnv(key, defaultValue string) string {
	return envOr(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func getEnvAsInt(key string, defaultValue int) int {
	return envOr(key, defaultValue, strconv.Atoi)
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return envOr(key, defaultValue, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return envOr(key, defaultValue, time.ParseDuration)
}
