package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv  string
	APIPort string

	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	CORSOrigins []string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LoginRateLimit  int
	LoginRateWindow time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	TextbeltAPIKey string
	ReminderCron   string
}

// Load reads .env when present and builds Config from the environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		APIPort:         getEnv("API_PORT", "8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "sehaty"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "appointment_events"),
		TextbeltAPIKey:  os.Getenv("TEXTBELT_API_KEY"),
		ReminderCron:    getEnv("REMINDER_CRON", "0 * * * *"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
