package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinJWTSecretLength is the minimum required length for the token secret in production
	MinJWTSecretLength = 32
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	// Remote libSQL (Turso) store, overrides DBPath when set
	TursoDatabaseURL string
	TursoAuthToken   string
	JWTSecret        string
	TokenTTL         time.Duration
	AllowedOrigins   []string
	BusinessTimezone string
	// Telephony provider (Exotel)
	ExotelSID     string
	ExotelUser    string
	ExotelToken   string
	ExotelNumber  string
	CallFlowSID   string
	ExotelBaseURL string
	// LLM provider (OpenAI)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	// Background jobs
	SyncInterval      time.Duration
	BroadcastInterval time.Duration
	// Recording archive (local fallback + Cloudflare R2)
	RecordingsDir     string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	NotifyEmails  []string
	LogFile       string
}

func Load() *Config {
	// Missing .env is fine, system env vars still apply
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	jwtSecret := getEnv("JWT_SECRET", "")

	ValidateJWTSecret(jwtSecret, environment)

	if jwtSecret == "" && environment != "production" {
		jwtSecret = GenerateSecureSecret()
		log.Println("[INFO] Generated temporary JWT secret for development. Set JWT_SECRET env var so tokens survive restarts.")
	}

	return &Config{
		ServerPort:        getEnv("PORT", "4000"),
		DBPath:            getEnv("DB_PATH", "db/app.db"),
		Environment:       environment,
		TursoDatabaseURL:  getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:    getEnv("TURSO_AUTH_TOKEN", ""),
		JWTSecret:         jwtSecret,
		TokenTTL:          getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,https://d-igital-bot.vercel.app")),
		BusinessTimezone:  getEnv("BUSINESS_TIMEZONE", "Asia/Kolkata"),
		ExotelSID:         getEnv("EXOTEL_SID", ""),
		ExotelUser:        getEnv("EXOTEL_USER", ""),
		ExotelToken:       getEnv("EXOTEL_TOKEN", ""),
		ExotelNumber:      getEnv("EXOTEL_NUMBER", ""),
		CallFlowSID:       getEnv("CALLFLOW_SID", ""),
		ExotelBaseURL:     getEnv("EXOTEL_BASE_URL", "https://api.exotel.com"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		BroadcastInterval: getEnvDuration("BROADCAST_INTERVAL", 5*time.Second),
		RecordingsDir:     getEnv("RECORDINGS_DIR", "data/recordings"),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		EmailFrom:         getEnv("EMAIL_FROM", "noreply@digitalbot.in"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Call Center"),
		EmailTestMode:     getEnvBool("EMAIL_TEST_MODE", true),
		NotifyEmails:      splitList(getEnv("NOTIFY_EMAILS", "")),
		LogFile:           getEnv("LOG_FILE", ""),
	}
}

// Location returns the business time zone, falling back to the server's local zone.
func (c *Config) Location() *time.Location {
	if c.BusinessTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		log.Printf("[WARNING] Unknown BUSINESS_TIMEZONE %q, using local time: %v", c.BusinessTimezone, err)
		return time.Local
	}
	return loc
}

// ExotelConfigured reports whether provider credentials are present.
func (c *Config) ExotelConfigured() bool {
	return c.ExotelSID != "" && c.ExotelUser != "" && c.ExotelToken != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		if isSecretKey(key) {
			log.Printf("Using default value for %s", key)
		} else {
			log.Printf("Using default value for %s: %s", key, defaultValue)
		}
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("[WARNING] Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "_SECRET") || strings.HasSuffix(key, "_TOKEN") ||
		strings.HasSuffix(key, "_KEY") || strings.HasSuffix(key, "_KEY_ID")
}

// ValidateJWTSecret validates the token signing secret.
// In production it must be at least 32 bytes and not a known insecure default.
func ValidateJWTSecret(secret string, environment string) error {
	insecureDefaults := []string{
		"your_jwt_secret",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal("[CRITICAL] JWT_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			log.Printf("[WARNING] JWT_SECRET is set to an insecure default value. This is acceptable only in development.")
			return nil
		}
	}

	if environment == "production" && len(secret) < MinJWTSecretLength {
		log.Fatalf("[CRITICAL] JWT_SECRET must be at least %d characters in production (current: %d). Generate with: openssl rand -base64 32", MinJWTSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret.
// Used only for development when no secret is provided.
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("[WARNING] Failed to generate secure secret: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
