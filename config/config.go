package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	GuestTokenTTL   time.Duration

	AdminAPIKey string
	CORSOrigins []string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	PublicBaseURL       string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	NotifyWorkers int

	RecommenderURL string

	FirebaseCredentialsJSON string
	FirebaseProjectID       string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                    getenv("PORT", "8080"),
		DatabaseURL:             databaseURL(),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		AccessTokenTTL:          durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:         durationEnv("REFRESH_TOKEN_TTL", 24*time.Hour),
		GuestTokenTTL:           durationEnv("GUEST_TOKEN_TTL", 24*time.Hour),
		AdminAPIKey:             os.Getenv("ADMIN_API_KEY"),
		CORSOrigins:             splitList(getenv("CORS_ORIGINS", "*")),
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:         strings.ToLower(getenv("PAYMENT_CURRENCY", "usd")),
		PublicBaseURL:           strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SMTPHost:                getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:                intEnv("SMTP_PORT", 587),
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPass:                os.Getenv("SMTP_PASS"),
		SMTPFrom:                getenv("SMTP_FROM", "noreply@bookstore.local"),
		NotifyWorkers:           intEnv("NOTIFY_WORKERS", 2),
		RecommenderURL:          os.Getenv("RECOMMENDER_URL"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET must be set")
	}
	return nil
}

// SuccessURL and CancelURL are handed to the payment provider for redirects.
func (c Config) SuccessURL() string { return c.PublicBaseURL + "/payment/completed" }

func (c Config) CancelURL() string { return c.PublicBaseURL + "/payment/canceled" }

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), name, getenv("DB_PORT", "5432"),
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
