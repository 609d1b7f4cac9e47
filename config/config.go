package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

type NominatimConfig struct {
	BaseUri   string
	UserAgent string
	Timeout   time.Duration
}

type OsrmConfig struct {
	BaseUri string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type DeliveryConfig struct {
	Schedule    string
	ThresholdKm float64
}

type Config struct {
	StorageDriver  string
	BadgerPath     string
	DSN            string
	LogsDirectory  string
	LogLevel       string
	HTTPAddr       string
	PublicBaseURL  string
	MetricsEnabled bool
	Nominatim      *NominatimConfig
	OSRM           *OsrmConfig
	Redis          *RedisConfig
	Delivery       *DeliveryConfig
}

func defaults(v *viper.Viper) {
	v.SetDefault("STORAGE_DRIVER", StorageBadger)
	v.SetDefault("BADGER_PATH", "data/badger")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("NOMINATIM_BASE_URI", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "export-tracking-service")
	v.SetDefault("GEOCODING_TIMEOUT", 5*time.Second)
	v.SetDefault("OSRM_BASE_URI", "https://router.project-osrm.org")
	v.SetDefault("ROUTING_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GEOCODE_CACHE_TTL", 24*time.Hour)
	v.SetDefault("DELIVERY_SCHEDULE", "*/15 * * * *")
	v.SetDefault("DELIVERY_THRESHOLD_KM", 5.0)
	v.SetDefault("METRICS_ENABLED", true)
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return v
}

// FromViper reads every setting from v. Durations accept Go syntax ("5s").
func FromViper(v *viper.Viper) *Config {
	return &Config{
		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		BadgerPath:     v.GetString("BADGER_PATH"),
		DSN:            v.GetString("DATABASE_DSN"),
		LogsDirectory:  v.GetString("LOGS_DIRECTORY"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		Nominatim: &NominatimConfig{
			BaseUri:   v.GetString("NOMINATIM_BASE_URI"),
			UserAgent: v.GetString("NOMINATIM_USER_AGENT"),
			Timeout:   v.GetDuration("GEOCODING_TIMEOUT"),
		},
		OSRM: &OsrmConfig{
			BaseUri: v.GetString("OSRM_BASE_URI"),
			Timeout: v.GetDuration("ROUTING_TIMEOUT"),
		},
		Redis: &RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("GEOCODE_CACHE_TTL"),
		},
		Delivery: &DeliveryConfig{
			Schedule:    v.GetString("DELIVERY_SCHEDULE"),
			ThresholdKm: v.GetFloat64("DELIVERY_THRESHOLD_KM"),
		},
	}
}
