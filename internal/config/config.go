package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBrands is the full brand list an admin can operate on
var DefaultBrands = []string{"바르너", "릴리이브", "보호리", "먼슬리픽", "색동서울"}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Cafe24   Cafe24Config
	GitHub   GitHubConfig
	Slack    SlackConfig
	Log      LogConfig
	Brands   []string
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig is optional; an empty Addr keeps the Cafe24 token in PostgreSQL
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	DefaultInitialPassword string
}

type Cafe24Config struct {
	MallID       string
	BrandName    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AdminURL is where the OAuth callback sends the browser afterwards
	AdminURL     string
	APIVersion   string
	RateLimitRPS float64
	RateBurst    int
}

type GitHubConfig struct {
	Token          string
	Owner          string
	Repo           string
	WorkflowID     string
	Ref            string
	ScheduleHour   int
	ScheduleMinute int
}

type SlackConfig struct {
	WebhookURL       string
	HourlyWebhookURL string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configs/.env when present and builds the configuration from the environment
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvString("PORT", "8080"),
			Mode:           getEnvString("GIN_MODE", "debug"),
			AllowedOrigins: getEnvStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:3005", "http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:     getEnvString("DB_HOST", "localhost"),
			Port:     getEnvString("DB_PORT", "5432"),
			User:     getEnvString("DB_USER", "postgres"),
			Password: getEnvString("DB_PASSWORD", "postgres"),
			Name:     getEnvString("DB_NAME", "postgres"),
			SSLMode:  getEnvString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnvString("JWT_SECRET", ""),
			AccessTokenTTL:         getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTokenTTL:        getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			DefaultInitialPassword: getEnvString("DEFAULT_INITIAL_PASSWORD", "changeme123"),
		},
		Cafe24: Cafe24Config{
			MallID:       getEnvString("CAFE24_MALL_ID", ""),
			BrandName:    getEnvString("CAFE24_BRAND_NAME", "바르너"),
			ClientID:     getEnvString("CAFE24_CLIENT_ID", ""),
			ClientSecret: getEnvString("CAFE24_CLIENT_SECRET", ""),
			RedirectURI:  getEnvString("CAFE24_REDIRECT_URI", "http://localhost:8080/api/cafe24/callback"),
			AdminURL:     getEnvString("CAFE24_ADMIN_URL", "/admin"),
			APIVersion:   getEnvString("CAFE24_API_VERSION", "2024-03-01"),
			RateLimitRPS: getEnvFloat("CAFE24_RATE_LIMIT_RPS", 2),
			RateBurst:    getEnvInt("CAFE24_RATE_BURST", 40),
		},
		GitHub: GitHubConfig{
			Token:          getEnvString("GITHUB_TOKEN", ""),
			Owner:          getEnvString("GITHUB_REPO_OWNER", ""),
			Repo:           getEnvString("GITHUB_REPO_NAME", ""),
			WorkflowID:     getEnvString("GITHUB_WORKFLOW_ID", "scrape.yml"),
			Ref:            getEnvString("GITHUB_REF", "main"),
			ScheduleHour:   getEnvInt("SCHEDULE_HOUR_KST", 7),
			ScheduleMinute: getEnvInt("SCHEDULE_MINUTE_KST", 20),
		},
		Slack: SlackConfig{
			WebhookURL:       getEnvString("SLACK_WEBHOOK_URL", ""),
			HourlyWebhookURL: getEnvString("SLACK_WEBHOOK_URL_HOURLY", ""),
		},
		Log: LogConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Brands: getEnvStringSlice("BRANDS", DefaultBrands),
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Server.Mode == "release" {
			return nil, fmt.Errorf("invalid configuration: JWT_SECRET is required in release mode")
		}
		cfg.Auth.JWTSecret = "default_super_secret_key" // development fallback only
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %q", c.Server.Port)
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if c.Cafe24.RateLimitRPS <= 0 || c.Cafe24.RateBurst <= 0 {
		return fmt.Errorf("cafe24 rate limit and burst must be positive")
	}

	if c.GitHub.ScheduleHour < 0 || c.GitHub.ScheduleHour > 23 || c.GitHub.ScheduleMinute < 0 || c.GitHub.ScheduleMinute > 59 {
		return fmt.Errorf("schedule time %02d:%02d is not a valid time of day", c.GitHub.ScheduleHour, c.GitHub.ScheduleMinute)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Log.Level, strings.Join(validLevels, ", "))
	}

	validFormats := []string{"json", "console"}
	if !contains(validFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Log.Format, strings.Join(validFormats, ", "))
	}

	return nil
}

// DSN builds the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// HourlyWebhook returns the dedicated hourly channel webhook, falling back to the general one
func (s SlackConfig) HourlyWebhook() string {
	if s.HourlyWebhookURL != "" {
		return s.HourlyWebhookURL
	}
	return s.WebhookURL
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
