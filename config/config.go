package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string   `mapstructure:"APP_PORT"`
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    []string `mapstructure:"ALLOWED_ORIGINS"`

	// REST backend the gateway fronts.
	BackendBaseURL string        `mapstructure:"BACKEND_BASE_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisChatDB    int    `mapstructure:"REDIS_CHAT_DB"`

	SessionCacheTTL time.Duration `mapstructure:"SESSION_CACHE_TTL"`
	TagsCacheTTL    time.Duration `mapstructure:"TAGS_CACHE_TTL"`

	// Browser-facing integrations.
	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	GoogleClientID   string `mapstructure:"GOOGLE_CLIENT_ID"`
	AppleClientID    string `mapstructure:"APPLE_CLIENT_ID"`

	// Hosted chat platform.
	CometChatAppID   string `mapstructure:"COMETCHAT_APP_ID"`
	CometChatRegion  string `mapstructure:"COMETCHAT_REGION"`
	CometChatAuthKey string `mapstructure:"COMETCHAT_AUTH_KEY"`
	CometChatAPIKey  string `mapstructure:"COMETCHAT_API_KEY"`

	// Photo storage: "backend" uploads through the REST backend, "cloudinary" goes direct.
	PhotoStore          string `mapstructure:"PHOTO_STORE"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`

	// HostCodePhrase gates experience creation when set.
	HostCodePhrase string `mapstructure:"HOST_CODE_PHRASE"`
}

var AppConfig Config

var defaults = map[string]any{
	"APP_PORT":              "8080",
	"ENV":                   "development",
	"LOG_LEVEL":             "info",
	"MAX_REQUESTS_PER_MIN":  200,
	"ALLOWED_ORIGINS":       "http://localhost:5173",
	"BACKEND_BASE_URL":      "http://localhost:5000/api",
	"BACKEND_TIMEOUT":       "15s",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_CACHE_DB":        0,
	"REDIS_SESSION_DB":      1,
	"REDIS_CHAT_DB":         2,
	"SESSION_CACHE_TTL":     "60s",
	"TAGS_CACHE_TTL":        "10m",
	"GOOGLE_MAPS_API_KEY":   "",
	"GOOGLE_CLIENT_ID":      "",
	"APPLE_CLIENT_ID":       "",
	"COMETCHAT_APP_ID":      "",
	"COMETCHAT_REGION":      "us",
	"COMETCHAT_AUTH_KEY":    "",
	"COMETCHAT_API_KEY":     "",
	"PHOTO_STORE":           "backend",
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"CLOUDINARY_FOLDER":     "experiences",
	"HOST_CODE_PHRASE":      "",
}

// Load reads configuration from an optional .env file, an optional config.yaml
// (in "." or "./config") and the environment, in increasing order of precedence.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
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
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode: %w", err)
	}

	cfg.BackendBaseURL = strings.TrimRight(cfg.BackendBaseURL, "/")
	cfg.PhotoStore = strings.ToLower(strings.TrimSpace(cfg.PhotoStore))
	switch cfg.PhotoStore {
	case "backend", "cloudinary":
	default:
		return Config{}, fmt.Errorf("config: unknown PHOTO_STORE %q", cfg.PhotoStore)
	}
	return cfg, nil
}

// LoadConfig populates AppConfig or exits.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
