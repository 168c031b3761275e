package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	JWTSecret   string
	DatabaseURL string
	CORSOrigins []string

	AdminEmail    string
	AdminPassword string

	// SMTP transport for the email notification channel. Optional: when host
	// is empty the channel is disabled and deliveries are logged only.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// FCM server key for the mobile push channel. Optional.
	FCMServerKey string

	// Bounded retry for email delivery (1s, 2s, 4s, ... by default).
	EmailRetryMaxAttempts int
	EmailRetryBaseDelay   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4001"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,https://necesitomasreviews.com"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))

	retryMax, _ := strconv.Atoi(getEnv("EMAIL_RETRY_MAX_ATTEMPTS", "3"))
	if retryMax < 1 {
		retryMax = 1
	}
	retryBaseMs, _ := strconv.Atoi(getEnv("EMAIL_RETRY_BASE_MS", "1000"))

	return &Config{
		Port:          port,
		JWTSecret:     jwtSecret,
		DatabaseURL:   dbURL,
		CORSOrigins:   origins,
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@necesitomasreviews.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: smtpPort,
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", getEnv("SMTP_USER", "")),

		FCMServerKey: getEnv("FCM_SERVER_KEY", ""),

		EmailRetryMaxAttempts: retryMax,
		EmailRetryBaseDelay:   time.Duration(retryBaseMs) * time.Millisecond,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
