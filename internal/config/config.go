package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Geofence GeofenceConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	Timezone    string
	CORSOrigins []string
	SeedFile    string
}

type StorageConfig struct {
	Type     string // local
	BasePath string
	BaseURL  string
}

// GeofenceConfig restricts check-in to a radius around the office when enabled.
type GeofenceConfig struct {
	Enabled      bool
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

type CronConfig struct {
	Enabled bool
	// AutoCloseAfter is how long after a shift's end an open record is closed.
	AutoCloseAfter time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       dbPort,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "attendance"),
		SSLMode:    getEnv("DB_SSL_MODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "attendance.db"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		SeedFile:    getEnv("SEED_FILE", "config/seed.yaml"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%d/uploads", appPort)),
	}

	// Geofence configuration
	config.Geofence.Enabled = getEnvBool("GEOFENCE_ENABLED", false)
	if config.Geofence.Enabled {
		if config.Geofence.Latitude, err = strconv.ParseFloat(getEnv("GEOFENCE_LATITUDE", "0"), 64); err != nil {
			return nil, fmt.Errorf("invalid GEOFENCE_LATITUDE: %w", err)
		}
		if config.Geofence.Longitude, err = strconv.ParseFloat(getEnv("GEOFENCE_LONGITUDE", "0"), 64); err != nil {
			return nil, fmt.Errorf("invalid GEOFENCE_LONGITUDE: %w", err)
		}
		if config.Geofence.RadiusMeters, err = strconv.ParseFloat(getEnv("GEOFENCE_RADIUS_METERS", "200"), 64); err != nil {
			return nil, fmt.Errorf("invalid GEOFENCE_RADIUS_METERS: %w", err)
		}
	}

	// Cron configuration
	autoCloseAfter, err := time.ParseDuration(getEnv("CRON_AUTO_CLOSE_AFTER", "4h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_AUTO_CLOSE_AFTER: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:        getEnvBool("CRON_ENABLED", true),
		AutoCloseAfter: autoCloseAfter,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.ParseDuration(c.JWT.RefreshExpiration); err != nil {
		return fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Storage.Type != "local" {
		return fmt.Errorf("STORAGE_TYPE must be local, got %q", c.Storage.Type)
	}
	if c.Geofence.Enabled && c.Geofence.RadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive")
	}
	return nil
}

// Location returns the configured business timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
