package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Ingest    IngestConfig
	Geo       GeoConfig
	Retention RetentionConfig
	Archive   ArchiveConfig
}

type DatabaseConfig struct {
	URL               string // Takes precedence over the discrete fields when set
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	MigrateOnStart    bool
}

type ServerConfig struct {
	Port                    string
	Env                     string
	LogLevel                string
	AllowedOrigins          []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	AdminRateLimitPerMinute int
}

// AuthConfig configures verification of tokens minted by the external auth service
type AuthConfig struct {
	JWTSecret string
}

type IngestConfig struct {
	RateLimitPerMinute int
	MaxBodyBytes       int64
	StoreWriteTimeout  time.Duration
	PhishingBaseURL    string
}

type GeoConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type RetentionConfig struct {
	MaxAge   time.Duration // zero disables purging
	Interval time.Duration
}

type ArchiveConfig struct {
	S3Bucket  string // empty disables archiving
	S3Prefix  string
	AWSRegion string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("AUTH_JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "lure"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			MigrateOnStart:    getEnvAsBool("MIGRATE_ON_START", true),
		},
		Server: ServerConfig{
			Port:                    getEnv("PORT", "8080"),
			Env:                     env,
			LogLevel:                getEnv("LOG_LEVEL", "info"),
			AllowedOrigins:          parseAllowedOrigins(env),
			ReadTimeout:             getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:            getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:             getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AdminRateLimitPerMinute: getEnvAsInt("ADMIN_RATE_LIMIT_PER_MINUTE", 120),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
		},
		Ingest: IngestConfig{
			// Off by default: a campaign's submissions often share one egress IP
			RateLimitPerMinute: getEnvAsInt("INGEST_RATE_LIMIT_PER_MINUTE", 0),
			MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 64<<10)),
			StoreWriteTimeout:  getEnvAsDuration("STORE_WRITE_TIMEOUT", 5*time.Second),
			PhishingBaseURL:    strings.TrimRight(getEnv("PHISHING_BASE_URL", "http://localhost:5173"), "/"),
		},
		Geo: GeoConfig{
			Enabled: getEnvAsBool("GEO_ENABLED", true),
			BaseURL: getEnv("GEO_BASE_URL", "http://ip-api.com/json"),
			Timeout: getEnvAsDuration("GEO_TIMEOUT", 2*time.Second),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvAsDuration("ATTEMPT_RETENTION", 0),
			Interval: getEnvAsDuration("RETENTION_INTERVAL", 1*time.Hour),
		},
		Archive: ArchiveConfig{
			S3Bucket:  getEnv("ARCHIVE_S3_BUCKET", ""),
			S3Prefix:  getEnv("ARCHIVE_S3_PREFIX", ""),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if _, err := url.ParseRequestURI(cfg.Geo.BaseURL); err != nil {
		return nil, fmt.Errorf("GEO_BASE_URL is not a valid URL: %w", err)
	}

	if cfg.Retention.MaxAge > 0 && cfg.Retention.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive when ATTEMPT_RETENTION is set")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the shared token secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("AUTH_JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if originsStr := getEnv("ALLOWED_ORIGINS", ""); originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	if env == "production" {
		return []string{}
	}

	// Development: allow the dashboard dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:8080",
	}
}
