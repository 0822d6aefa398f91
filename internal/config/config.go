package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Session      SessionConfig
	Middleware   MiddlewareConfig
	Carrier      CarrierConfig
	Zendesk      ZendeskClientConfig
	Monitor      MonitorConfig
	Notification NotificationConfig
	SecretsPath  string
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig controls how intake sessions are stored and identified.
type SessionConfig struct {
	Store       string
	TokenSecret string
	TTLMinutes  int
}

// MiddlewareConfig points at the middleware service that proxies ticket operations.
type MiddlewareConfig struct {
	BaseURL               string
	TimeoutSeconds        int
	FormFieldsCacheTTLSec int
}

// CarrierConfig configures the carrier lookup API. Token may also come from the secrets file.
type CarrierConfig struct {
	URL            string
	Token          string
	TimeoutSeconds int
}

// ZendeskClientConfig holds transport settings for the ticketing REST API.
type ZendeskClientConfig struct {
	TimeoutSeconds int
	// BaseURL overrides https://<subdomain>.zendesk.com, mainly for sandboxes.
	BaseURL string
}

// MonitorConfig controls the status poller.
type MonitorConfig struct {
	PollIntervalSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	defaultCarrierURL = "https://api.realvalidation.com/rpvWebService/TurboV3.php"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	store := getEnv("SESSION_STORE", SessionStoreRedis)
	if store != SessionStoreRedis && store != SessionStoreMemory {
		return nil, fmt.Errorf("invalid SESSION_STORE %q: want %s or %s", store, SessionStoreRedis, SessionStoreMemory)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "mfl-intake"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 150),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Store:       store,
			TokenSecret: getEnv("SESSION_TOKEN_SECRET", "dev-secret"),
			TTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 720),
		},
		Middleware: MiddlewareConfig{
			BaseURL:               getEnv("MIDDLEWARE_URL", "http://localhost:8000"),
			TimeoutSeconds:        getEnvAsInt("MIDDLEWARE_TIMEOUT_SECONDS", 30),
			FormFieldsCacheTTLSec: getEnvAsInt("FORM_FIELDS_CACHE_TTL_SECONDS", 300),
		},
		Carrier: CarrierConfig{
			URL:            getEnv("CARRIER_API_URL", defaultCarrierURL),
			Token:          os.Getenv("CARRIER_API_TOKEN"),
			TimeoutSeconds: getEnvAsInt("CARRIER_TIMEOUT_SECONDS", 10),
		},
		Zendesk: ZendeskClientConfig{
			TimeoutSeconds: getEnvAsInt("ZENDESK_TIMEOUT_SECONDS", 30),
			BaseURL:        os.Getenv("ZENDESK_BASE_URL"),
		},
		Monitor: MonitorConfig{
			PollIntervalSeconds: getEnvAsInt("STATUS_POLL_INTERVAL_SECONDS", 30),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		SecretsPath: getEnv("SECRETS_PATH", "secrets.yaml"),
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// TTL returns how long an idle session survives.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func (m MiddlewareConfig) Timeout() time.Duration {
	return seconds(m.TimeoutSeconds)
}

func (m MiddlewareConfig) FormFieldsCacheTTL() time.Duration {
	return seconds(m.FormFieldsCacheTTLSec)
}

func (c CarrierConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

func (z ZendeskClientConfig) Timeout() time.Duration {
	return seconds(z.TimeoutSeconds)
}

// PollInterval returns the status polling cadence, never below one second.
func (m MonitorConfig) PollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
