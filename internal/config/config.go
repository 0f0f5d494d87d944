package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver           string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	DBPath             string
	RedisHost          string
	RedisPort          string
	SessionSecret      string
	GinMode            string
	Port               string
	LogLevel           string
	AuthUsername       string
	AuthPassword       string
	AuthPasswordHash   string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	WebhookTimeout     time.Duration
	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "todouser"),
		DBPassword:         getEnv("DB_PASSWORD", "todopassword"),
		DBName:             getEnv("DB_NAME", "todo_tracker"),
		DBPath:             getEnv("DB_PATH", "todo.db"),
		RedisHost:          getEnv("REDIS_HOST", ""),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		SessionSecret:      getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AuthUsername:       getEnv("AUTH_USERNAME", ""),
		AuthPassword:       getEnv("AUTH_PASSWORD", ""),
		AuthPasswordHash:   getEnv("AUTH_PASSWORD_HASH", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		WebhookTimeout:     getDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),
	}
}

// IsProduction reports whether the server runs in gin release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
