package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// uploaded posters and payment receipts live under this dir
	MediaDir string

	JWTSecret            string
	JWTAccessTTLMinutes  int
	JWTRefreshTTLMinutes int

	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminRole     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint       string
	CORSAllowedOrigins []string

	MailProvider    string // "log" | "ses"
	MailFromAddress string
	MailFromName    string
	SESRegion       string
	SESAccessKeyID  string
	SESSecretKey    string

	WorkerPollInterval time.Duration
}

func Load() Config {
	// .env is optional, real env always wins
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:      env,
		Port:     port,
		DBURL:    dbURL,
		MediaDir: getEnv("MEDIA_DIR", "./media"),

		JWTSecret:            getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes:  getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),
		JWTRefreshTTLMinutes: getEnvInt("JWT_REFRESH_TTL_MINUTES", 60*24*7),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Race Admin"),
		AdminRole:     getEnv("ADMIN_ROLE", "admin"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint:       getEnv("OTLP_ENDPOINT", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		MailProvider:    getEnv("MAIL_PROVIDER", "log"),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "no-reply@surigaorunners.local"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Surigao Runners"),
		SESRegion:       getEnv("SES_REGION", "ap-southeast-1"),
		SESAccessKeyID:  getEnv("SES_ACCESS_KEY_ID", ""),
		SESSecretKey:    getEnv("SES_SECRET_ACCESS_KEY", ""),

		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_MS", 250)) * time.Millisecond,
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "racereg")
	pass := getEnv("DB_PASSWORD", "racereg")
	name := getEnv("DB_NAME", "racereg")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
