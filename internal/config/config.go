package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Stripe
	StripeSecretKey     string
	StripePublicKey     string
	StripeWebhookSecret string

	// Price oracle
	QuotesPageURL string
	FeedBaseURL   string
	ScrapeTimeout time.Duration
	FeedTimeout   time.Duration
	BroadcastTick time.Duration

	// Cloudinary
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Email
	EmailHost   string
	EmailPort   int
	EmailUser   string
	EmailPass   string
	EmailFrom   string
	AdminEmail  string

	// Admin auth
	AdminUsername     string
	AdminPasswordHash string
	AdminToken        string
	JWTSecret         string
	JWTAccessExpiry   time.Duration
	AccessTokenExpiry time.Duration

	// Server
	Port        string
	CORSOrigins string
	FrontendURL string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "spectra_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripePublicKey:     getEnv("STRIPE_PUBLIC_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		QuotesPageURL: getEnv("QUOTES_PAGE_URL", "https://www.metalsdaily.com/live-prices/pgms/"),
		FeedBaseURL:   getEnv("FEED_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		ScrapeTimeout: parseDuration(getEnv("SCRAPE_TIMEOUT", "60s"), 60*time.Second),
		FeedTimeout:   parseDuration(getEnv("FEED_TIMEOUT", "10s"), 10*time.Second),
		BroadcastTick: parseDuration(getEnv("BROADCAST_TICK", "10s"), 10*time.Second),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		EmailHost:  getEnv("EMAIL_HOST", "smtp.gmail.com"),
		EmailPort:  parseInt(getEnv("EMAIL_PORT", "587"), 587),
		EmailUser:  getEnv("EMAIL_USER", ""),
		EmailPass:  getEnv("EMAIL_PASS", ""),
		EmailFrom:  getEnv("EMAIL_FROM", "Spectra Metals <noreply@spectra.com>"),
		AdminEmail: getEnv("ADMIN_EMAIL", "admin@spectra.com"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:   parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h"), time.Hour),
		AccessTokenExpiry: parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "30m"), 30*time.Minute),

		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
