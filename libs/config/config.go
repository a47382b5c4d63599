// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	ContentAPI ContentAPIConfig
	Sessions   SessionConfig
	History    HistoryConfig
	APIKey     string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// ContentAPIConfig holds settings of the upstream content API
type ContentAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SessionConfig holds editing session settings
type SessionConfig struct {
	Store string
	TTL   time.Duration
	// SubmitEmptyChanges keeps submitting a section update even when nothing changed.
	SubmitEmptyChanges bool
}

// HistoryConfig holds save history settings
type HistoryConfig struct {
	// Retention is how long save records are kept before /history/clean removes them
	Retention time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtCfg, err := loadJWT()
	if err != nil {
		return nil, err
	}
	cfg.JWT = *jwtCfg

	// API Key configuration (optional, for service-to-service authentication)
	cfg.APIKey = os.Getenv("API_KEY")

	contentAPI, err := loadContentAPI()
	if err != nil {
		return nil, err
	}
	cfg.ContentAPI = *contentAPI

	sessions, err := loadSessions()
	if err != nil {
		return nil, err
	}
	cfg.Sessions = *sessions

	retention, err := durationEnv("HISTORY_RETENTION", "2160h")
	if err != nil {
		return nil, err
	}
	if retention <= 0 {
		return nil, fmt.Errorf("HISTORY_RETENTION must be positive")
	}
	cfg.History.Retention = retention

	redisCfg, err := loadRedis()
	if err != nil {
		return nil, err
	}
	cfg.Redis = *redisCfg

	return cfg, nil
}

// LoadClient reads only the settings needed by command line tools talking to the content API.
func LoadClient() (*Config, error) {
	godotenv.Load()

	cfg := &Config{}
	contentAPI, err := loadContentAPI()
	if err != nil {
		return nil, err
	}
	cfg.ContentAPI = *contentAPI

	sessions, err := loadSessions()
	if err != nil {
		return nil, err
	}
	cfg.Sessions = *sessions

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}
	cfg.Logging.Level = logLevel

	return cfg, nil
}

func loadJWT() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	accessExpiry, err := durationEnv("JWT_ACCESS_TOKEN_EXPIRY", "1h")
	if err != nil {
		return nil, err
	}

	return &JWTConfig{
		Secret:            secret,
		AccessTokenExpiry: accessExpiry,
	}, nil
}

func loadContentAPI() (*ContentAPIConfig, error) {
	baseURL := strings.TrimRight(os.Getenv("CONTENT_API_URL"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("CONTENT_API_URL is required")
	}

	timeout, err := durationEnv("CONTENT_API_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	return &ContentAPIConfig{
		BaseURL: baseURL,
		APIKey:  os.Getenv("CONTENT_API_KEY"), // optional
		Timeout: timeout,
	}, nil
}

func loadSessions() (*SessionConfig, error) {
	store := strings.ToLower(os.Getenv("SESSION_STORE"))
	if store == "" {
		store = SessionStoreMemory
	}
	if store != SessionStoreMemory && store != SessionStoreRedis {
		return nil, fmt.Errorf("invalid SESSION_STORE: %q", store)
	}

	ttl, err := durationEnv("SESSION_TTL", "2h")
	if err != nil {
		return nil, err
	}

	// Empty-diff submissions are kept by default; the content API touches updated_at on every save.
	submitEmpty := true
	if raw := os.Getenv("SUBMIT_EMPTY_CHANGES"); raw != "" {
		submitEmpty, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBMIT_EMPTY_CHANGES: %w", err)
		}
	}

	return &SessionConfig{
		Store:              store,
		TTL:                ttl,
		SubmitEmptyChanges: submitEmpty,
	}, nil
}

func loadRedis() (*RedisConfig, error) {
	cfg := &RedisConfig{}

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Host = redisHost

	redisPortStr := os.Getenv("REDIS_PORT")
	if redisPortStr == "" {
		redisPortStr = "6379" // default
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Port = redisPort

	cfg.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.DB = redisDB

	return cfg, nil
}

// parseOrigins splits a comma-separated origin list, allowing all origins when empty
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func durationEnv(key, def string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port pair of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
