package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Geofence   GeofenceConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
	Watcher    WatcherConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// SiteConfig is one work site a punch may be recorded at.
type SiteConfig struct {
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

type GeofenceConfig struct {
	Sites []SiteConfig `yaml:"sites"`
}

// AttendanceConfig holds the grace periods used by the status engine.
type AttendanceConfig struct {
	LateGrace     time.Duration
	OvertimeGrace time.Duration
}

type PayrollConfig struct {
	DefaultHourlyRate string
	OvertimeFactor    string
}

type WatcherConfig struct {
	Interval      time.Duration
	ReminderLead  time.Duration
	LunchDuration time.Duration
	Concurrency   int
	// ReminderStore is "memory" or "postgres".
	ReminderStore string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "timeclock"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Geofence: a YAML sites file wins over the single-site env vars
	if path := getEnv("GEOFENCE_SITES_FILE", ""); path != "" {
		geofence, err := LoadSitesFile(path)
		if err != nil {
			return nil, err
		}
		config.Geofence = geofence
	} else {
		sites, err := siteFromEnv()
		if err != nil {
			return nil, err
		}
		config.Geofence = GeofenceConfig{Sites: sites}
	}

	// Attendance grace periods
	lateGrace, err := time.ParseDuration(getEnv("LATE_GRACE", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_GRACE: %w", err)
	}
	overtimeGrace, err := time.ParseDuration(getEnv("OVERTIME_GRACE", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERTIME_GRACE: %w", err)
	}
	config.Attendance = AttendanceConfig{
		LateGrace:     lateGrace,
		OvertimeGrace: overtimeGrace,
	}

	config.Payroll = PayrollConfig{
		DefaultHourlyRate: getEnv("PAYROLL_DEFAULT_HOURLY_RATE", "20"),
		OvertimeFactor:    getEnv("PAYROLL_OVERTIME_FACTOR", "1.5"),
	}

	// Schedule watcher
	interval, err := time.ParseDuration(getEnv("WATCHER_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_INTERVAL: %w", err)
	}
	lead, err := time.ParseDuration(getEnv("WATCHER_REMINDER_LEAD", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_REMINDER_LEAD: %w", err)
	}
	lunch, err := time.ParseDuration(getEnv("WATCHER_LUNCH_DURATION", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_LUNCH_DURATION: %w", err)
	}
	concurrency, err := strconv.Atoi(getEnv("WATCHER_CONCURRENCY", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_CONCURRENCY: %w", err)
	}
	config.Watcher = WatcherConfig{
		Interval:      interval,
		ReminderLead:  lead,
		LunchDuration: lunch,
		Concurrency:   concurrency,
		ReminderStore: getEnv("REMINDER_STORE", "postgres"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadSitesFile reads work sites from a YAML document of the form
//
//	sites:
//	  - name: hq
//	    latitude: -24.0049
//	    longitude: -46.4123
//	    radius_meters: 100
func LoadSitesFile(path string) (GeofenceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return GeofenceConfig{}, fmt.Errorf("read geofence sites file %s: %w", path, err)
	}

	var cfg GeofenceConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return GeofenceConfig{}, fmt.Errorf("parse geofence sites file: %w", err)
	}
	if len(cfg.Sites) == 0 {
		return GeofenceConfig{}, fmt.Errorf("geofence sites file %s declares no sites", path)
	}
	return cfg, nil
}

// siteFromEnv reads the single-site variables. With neither coordinate set it returns no site.
func siteFromEnv() ([]SiteConfig, error) {
	rawLat, rawLon := getEnv("GEOFENCE_LAT", ""), getEnv("GEOFENCE_LON", "")
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, fmt.Errorf("GEOFENCE_LAT and GEOFENCE_LON must be set together")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_LON: %w", err)
	}
	radius, err := strconv.ParseFloat(getEnv("GEOFENCE_RADIUS_METERS", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_RADIUS_METERS: %w", err)
	}
	return []SiteConfig{{
		Name:         getEnv("GEOFENCE_SITE_NAME", "main"),
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: radius,
	}}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	if len(c.Geofence.Sites) == 0 {
		return fmt.Errorf("a geofence site is required: set GEOFENCE_SITES_FILE or GEOFENCE_LAT and GEOFENCE_LON")
	}
	for _, site := range c.Geofence.Sites {
		if site.RadiusMeters <= 0 {
			return fmt.Errorf("geofence site %q must have a positive radius", site.Name)
		}
		if site.Latitude < -90 || site.Latitude > 90 || site.Longitude < -180 || site.Longitude > 180 {
			return fmt.Errorf("geofence site %q has out-of-range coordinates", site.Name)
		}
	}
	if c.Watcher.Interval <= 0 {
		return fmt.Errorf("WATCHER_INTERVAL must be positive")
	}
	if c.Watcher.Concurrency <= 0 {
		return fmt.Errorf("WATCHER_CONCURRENCY must be positive")
	}
	if c.Watcher.ReminderStore != "memory" && c.Watcher.ReminderStore != "postgres" {
		return fmt.Errorf("REMINDER_STORE must be memory or postgres")
	}
	return nil
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

// Location returns the time zone punches are grouped into calendar days with.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
