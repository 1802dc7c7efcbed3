package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSOrigins            string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTExpiry              time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	LeaderboardCacheTTL    time.Duration
	SubmitRateLimit        int
	SubmitRateWindow       time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAMIFY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Examify API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("jwt.expiry", "72h")
	v.SetDefault("cloudinary.folder", "examify/assets")
	v.SetDefault("leaderboard.cache_ttl", "2m")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")

	ttl, err := time.ParseDuration(stringOrDefault(v.GetString("leaderboard.cache_ttl"), "2m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	expiry, err := time.ParseDuration(stringOrDefault(v.GetString("jwt.expiry"), "72h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt expiry: %w", err)
	}

	rateWindow, err := time.ParseDuration(stringOrDefault(v.GetString("submit.rate_window"), "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSOrigins:            v.GetString("cors.origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTExpiry:              expiry,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		LeaderboardCacheTTL:    ttl,
		SubmitRateLimit:        v.GetInt("submit.rate_limit"),
		SubmitRateWindow:       rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 10
	}

	return cfg, nil
}

func stringOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
