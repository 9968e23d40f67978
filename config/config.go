package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete gateway configuration
type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	Mock          MockConfig
	Database      *DatabaseConfig // Optional: dispatch audit trail. When nil, dispatches are not persisted.
	Auth          AuthConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration // Upper bound for a single routed request (chi Timeout middleware)
}

// BackendConfig holds the generation backend connection settings.
// It is passed explicitly to the backend client at construction.
type BackendConfig struct {
	BaseURL        string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	LiveGenerate   bool // Attempt POST /generate on the backend before falling back to the mock path
}

// MockConfig controls the placeholder generator used when the backend is down
type MockConfig struct {
	Delay       time.Duration
	Width       int
	Height      int
	ModelName   string
	OutputDir   string
	DefaultSize int
}

// DatabaseConfig holds PostgreSQL configuration for the dispatch audit trail.
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	AuditBufferSize  int
	AuditWorkers     int
}

// AuthConfig holds the optional gateway token guard settings
type AuthConfig struct {
	Secret string // HS256 shared secret; empty disables the guard
	Issuer string // Optional expected "iss" claim
}

// CORSConfig holds the renderer origins allowed to call the gateway
type CORSConfig struct {
	AllowedOrigins []string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "127.0.0.1"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 180*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 150*time.Second),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
			HealthTimeout:  getEnvAsDuration("BACKEND_HEALTH_TIMEOUT", 2*time.Second),
			RequestTimeout: getEnvAsDuration("BACKEND_REQUEST_TIMEOUT", 120*time.Second),
			LiveGenerate:   getEnvAsBool("BACKEND_LIVE_GENERATE", true),
		},
		Mock: MockConfig{
			Delay:       getEnvAsDuration("MOCK_DELAY", 1500*time.Millisecond),
			Width:       getEnvAsInt("MOCK_RESOLUTION_WIDTH", 1024),
			Height:      getEnvAsInt("MOCK_RESOLUTION_HEIGHT", 1024),
			ModelName:   getEnv("MOCK_MODEL_NAME", "nano-banana"),
			OutputDir:   getEnv("MOCK_OUTPUT_DIR", "mock_outputs"),
			DefaultSize: getEnvAsInt("MOCK_DEFAULT_NUM_IMAGES", 4),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			Secret: getEnv("GATEWAY_AUTH_SECRET", ""),
			Issuer: getEnv("GATEWAY_AUTH_ISSUER", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000", "app://*"}),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL must be an absolute http(s) URL: %q", c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL scheme must be http or https: %q", u.Scheme)
	}
	if c.Backend.HealthTimeout <= 0 {
		return fmt.Errorf("backend health timeout must be positive")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend request timeout must be positive")
	}

	if c.Mock.Width <= 0 || c.Mock.Height <= 0 {
		return fmt.Errorf("mock resolution must be positive, got %dx%d", c.Mock.Width, c.Mock.Height)
	}
	if c.Mock.Delay < 0 {
		return fmt.Errorf("mock delay cannot be negative")
	}
	if c.Mock.DefaultSize <= 0 {
		return fmt.Errorf("mock default image count must be positive")
	}

	// A shared secret is mandatory once the gateway leaves the desktop
	if c.IsProduction() && c.Auth.Secret == "" {
		return fmt.Errorf("gateway auth secret is required in production")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}

// loadDatabaseConfig loads the audit database config from DATABASE_URL.
// Returns nil when not set.
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AuditBufferSize:  getEnvAsInt("AUDIT_BUFFER_SIZE", 1000),
		AuditWorkers:     getEnvAsInt("AUDIT_WORKERS", 2),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 3001)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 3001
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
