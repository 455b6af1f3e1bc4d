package config

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Bangkok on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Shop     ShopConfig
	Maps     MapsConfig
	Wizard   WizardConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	AllowedOrigins    []string
	MaxRequestsPerMin int
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// ShopConfig is the self-pickup location.
type ShopConfig struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

// MapsConfig selects the map provider and its sources.
type MapsConfig struct {
	Provider             string // leaflet or google
	GoogleAPIKey         string
	PrimaryStylesheet    string
	PrimaryScript        string
	FallbackStylesheet   string
	FallbackScript       string
	PrimaryTiles         string
	AlternateTiles       string
	Attribution          string
	TileFailureThreshold int
	GeocoderURL          string
	GeocoderRate         float64
	UserAgent            string
}

// WizardConfig controls booking wizard sessions.
type WizardConfig struct {
	SessionTTL time.Duration
	// BackendURL, when set, makes sessions query availability and submit
	// bookings over HTTP instead of calling the local services.
	BackendURL string
	Timezone   string
}

var defaults = map[string]any{
	"ENV":                  "development",
	"SERVER_PORT":          "8080",
	"SERVER_READ_TIMEOUT":  "10s",
	"SERVER_WRITE_TIMEOUT": "10s",
	"ALLOWED_ORIGINS":      "*",
	"MAX_REQUESTS_PER_MIN": 120,

	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "postgres",
	"DB_PASSWORD": "postgres",
	"DB_NAME":     "carrent",
	"DB_SSLMODE":  "disable",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"NEW_RELIC_APP_NAME":    "carrent",
	"NEW_RELIC_LICENSE_KEY": "",
	"NEW_RELIC_ENABLED":     false,

	"LOG_LEVEL": "info",

	"SHOP_NAME":    "Modern Drive Pickup Center",
	"SHOP_ADDRESS": "999 Rama I Rd, Pathum Wan, Bangkok 10330",
	"SHOP_LAT":     13.7466,
	"SHOP_LNG":     100.5393,

	"MAP_PROVIDER":               "leaflet",
	"GOOGLE_MAPS_API_KEY":        "",
	"MAP_PRIMARY_STYLESHEET":     "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
	"MAP_PRIMARY_SCRIPT":         "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
	"MAP_FALLBACK_STYLESHEET":    "https://cdn.jsdelivr.net/npm/leaflet@1.9.4/dist/leaflet.css",
	"MAP_FALLBACK_SCRIPT":        "https://cdn.jsdelivr.net/npm/leaflet@1.9.4/dist/leaflet.js",
	"MAP_PRIMARY_TILES":          "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	"MAP_ALTERNATE_TILES":        "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
	"MAP_ATTRIBUTION":            "&copy; OpenStreetMap contributors",
	"MAP_TILE_FAILURE_THRESHOLD": 3,
	"GEOCODER_URL":               "https://nominatim.openstreetmap.org",
	"GEOCODER_RATE":              1.0,
	"GEOCODER_USER_AGENT":        "carrent/1.0",

	"WIZARD_SESSION_TTL": "30m",
	"WIZARD_BACKEND_URL": "",
	"WIZARD_TIMEZONE":    "Asia/Bangkok",
}

// Load loads configuration from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Port:              v.GetString("SERVER_PORT"),
			ReadTimeout:       v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:      v.GetDuration("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			MaxRequestsPerMin: v.GetInt("MAX_REQUESTS_PER_MIN"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("NEW_RELIC_APP_NAME"),
			LicenseKey: v.GetString("NEW_RELIC_LICENSE_KEY"),
			Enabled:    v.GetBool("NEW_RELIC_ENABLED"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Shop: ShopConfig{
			Name:    v.GetString("SHOP_NAME"),
			Address: v.GetString("SHOP_ADDRESS"),
			Lat:     v.GetFloat64("SHOP_LAT"),
			Lng:     v.GetFloat64("SHOP_LNG"),
		},
		Maps: MapsConfig{
			Provider:             strings.ToLower(v.GetString("MAP_PROVIDER")),
			GoogleAPIKey:         v.GetString("GOOGLE_MAPS_API_KEY"),
			PrimaryStylesheet:    v.GetString("MAP_PRIMARY_STYLESHEET"),
			PrimaryScript:        v.GetString("MAP_PRIMARY_SCRIPT"),
			FallbackStylesheet:   v.GetString("MAP_FALLBACK_STYLESHEET"),
			FallbackScript:       v.GetString("MAP_FALLBACK_SCRIPT"),
			PrimaryTiles:         v.GetString("MAP_PRIMARY_TILES"),
			AlternateTiles:       v.GetString("MAP_ALTERNATE_TILES"),
			Attribution:          v.GetString("MAP_ATTRIBUTION"),
			TileFailureThreshold: v.GetInt("MAP_TILE_FAILURE_THRESHOLD"),
			GeocoderURL:          v.GetString("GEOCODER_URL"),
			GeocoderRate:         v.GetFloat64("GEOCODER_RATE"),
			UserAgent:            v.GetString("GEOCODER_USER_AGENT"),
		},
		Wizard: WizardConfig{
			SessionTTL: v.GetDuration("WIZARD_SESSION_TTL"),
			BackendURL: v.GetString("WIZARD_BACKEND_URL"),
			Timezone:   v.GetString("WIZARD_TIMEZONE"),
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the wizard time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Wizard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
