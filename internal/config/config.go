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

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	Storage  StorageConfig
	VIN      VINConfig
	APIKey   string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port    int
	BaseURL string
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

// StorageConfig selects and parameterizes the file storage backend
type StorageConfig struct {
	Provider      string
	BasePath      string
	PublicBaseURL string
	S3Region      string
	S3Bucket      string
	PresignTTL    time.Duration
}

// VINConfig holds vehicle registry client settings
type VINConfig struct {
	APIURL     string
	Timeout    time.Duration
	MaxElapsed time.Duration
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

	baseURL := os.Getenv("SERVER_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", serverPort)
	}
	cfg.Server.BaseURL = strings.TrimRight(baseURL, "/")

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		// Parse comma-separated origins
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	accessExpiryStr := os.Getenv("JWT_ACCESS_TOKEN_EXPIRY")
	if accessExpiryStr == "" {
		accessExpiryStr = "1h"
	}
	accessExpiry, err := time.ParseDuration(accessExpiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	// Storage configuration
	cfg.Storage.Provider = os.Getenv("STORAGE_PROVIDER")
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "local"
	}

	cfg.Storage.BasePath = os.Getenv("STORAGE_BASE_PATH")
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}

	cfg.Storage.PublicBaseURL = os.Getenv("STORAGE_PUBLIC_BASE_URL")
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = cfg.Server.BaseURL + "/uploads"
	}

	cfg.Storage.S3Region = os.Getenv("STORAGE_S3_REGION")
	cfg.Storage.S3Bucket = os.Getenv("STORAGE_S3_BUCKET")
	if cfg.Storage.Provider == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("STORAGE_S3_BUCKET is required for the s3 provider")
	}

	presignTTLStr := os.Getenv("STORAGE_PRESIGN_TTL")
	if presignTTLStr == "" {
		presignTTLStr = "15m"
	}
	presignTTL, err := time.ParseDuration(presignTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_PRESIGN_TTL: %w", err)
	}
	cfg.Storage.PresignTTL = presignTTL

	// Vehicle registry configuration
	cfg.VIN.APIURL = os.Getenv("VIN_API_URL")
	if cfg.VIN.APIURL == "" {
		cfg.VIN.APIURL = "https://vpic.nhtsa.dot.gov/api"
	}

	vinTimeoutStr := os.Getenv("VIN_API_TIMEOUT")
	if vinTimeoutStr == "" {
		vinTimeoutStr = "10s"
	}
	vinTimeout, err := time.ParseDuration(vinTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid VIN_API_TIMEOUT: %w", err)
	}
	cfg.VIN.Timeout = vinTimeout

	vinMaxElapsedStr := os.Getenv("VIN_API_MAX_ELAPSED")
	if vinMaxElapsedStr == "" {
		vinMaxElapsedStr = "30s"
	}
	vinMaxElapsed, err := time.ParseDuration(vinMaxElapsedStr)
	if err != nil {
		return nil, fmt.Errorf("invalid VIN_API_MAX_ELAPSED: %w", err)
	}
	cfg.VIN.MaxElapsed = vinMaxElapsed

	// API Key configuration (optional, for service-to-service authentication)
	cfg.APIKey = os.Getenv("API_KEY")

	return cfg, nil
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
