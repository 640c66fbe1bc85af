package config

import (
	"time"

	"github.com/Skotchmaster/online_restaurant/internal/geo"
	"github.com/Skotchmaster/online_restaurant/pkg/config"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	JWTSecret   []byte
	AuthTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	CookieSecure  bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	MediaDir string
	Fence    geo.Fence

	AdminNickname string
	AdminEmail    string
	AdminPassword string
}

// FromEnv reads the configuration without enforcing required values.
func FromEnv() Config {
	return Config{
		Port:     config.EnvDefault("SERVER_PORT", "8080"),
		LogLevel: config.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: config.EnvDefault("DATABASE_URL", ""),
		JWTSecret:   []byte(config.EnvDefault("JWT_SECRET", "")),
		AuthTTL:     config.EnvDurationDefault("AUTH_TTL", 7*24*time.Hour),

		RedisAddr:     config.EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: config.EnvDefault("REDIS_PASSWORD", ""),
		SessionTTL:    config.EnvDurationDefault("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:  config.EnvBoolDefault("COOKIE_SECURE", false),

		KafkaBrokers: config.CSV(config.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      config.EnvDefault("ES_URL", ""),
		ESUser:     config.EnvDefault("ES_USER", ""),
		ESPassword: config.EnvDefault("ES_PASSWORD", ""),

		MediaDir: config.EnvDefault("MEDIA_DIR", "static/menu"),
		Fence: geo.Fence{
			Center: geo.Point{
				Lat: config.EnvFloatDefault("RESTAURANT_LAT", 50.4501),
				Lon: config.EnvFloatDefault("RESTAURANT_LON", 30.5234),
			},
			RadiusKm: config.EnvFloatDefault("BOOKING_RADIUS_KM", 20),
		},

		AdminNickname: config.EnvDefault("ADMIN_NICKNAME", "Admin"),
		AdminEmail:    config.EnvDefault("ADMIN_EMAIL", "admin@restaurant.local"),
		AdminPassword: config.EnvDefault("ADMIN_PASSWORD", ""),
	}
}

func Load() (Config, error) {
	cfg := FromEnv()
	err := config.Required{
		"DATABASE_URL":   cfg.DatabaseURL,
		"JWT_SECRET":     string(cfg.JWTSecret),
		"ADMIN_PASSWORD": cfg.AdminPassword,
	}.Check()
	return cfg, err
}
