package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppName        string
	HTTPAddr       string
	MigrationsPath string

	// DATABASE_URL takes precedence over the individual DB_* fields when set.
	DatabaseURL string

	DB DBConfig

	Redis RedisConfig

	Log LogConfig

	// SessionSecret verifies the HS256 session tokens issued by the auth
	// service. The portal only verifies tokens; it never issues them.
	SessionSecret string

	// PortalAllowedOrigins is a comma-separated allowlist of origins allowed
	// to call the customer portal endpoints from the browser. Example:
	//   https://portal.yourlab.com,http://localhost:5173
	PortalAllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8080"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		AppName:        env("APP_NAME", "labportal"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "labportal"),
			User:     env("DB_USER", "labportal"),
			Password: env("DB_PASSWORD", "labportal"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		PortalAllowedOrigins: envList("PORTAL_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
