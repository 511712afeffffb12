package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/models"
)

type Config struct {
	Port         string
	DBPath       string
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool
	UploadDir    string
	PublicURL    string

	LogLevel  string
	LogPretty bool

	CatalogCooldown time.Duration
	DefaultLanguage models.Language

	WhatsAppAPIKey        string
	WhatsAppPhoneNumberID string
	WhatsAppBaseURL       string
	AdminWhatsApp         string

	SpeechmaticsAPIKey  string
	SpeechmaticsBaseURL string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8585"),
		DBPath:       getEnv("DB_PATH", "./askmatsya.db"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8585"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnv("LOG_PRETTY", "false") == "true",

		DefaultLanguage: models.ParseLanguage(getEnv("DEFAULT_LANGUAGE", "en"), models.LanguageEnglish),

		WhatsAppAPIKey:        getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", ""),
		AdminWhatsApp:         getEnv("ADMIN_WHATSAPP", ""),

		SpeechmaticsAPIKey:  getEnv("SPEECHMATICS_API_KEY", ""),
		SpeechmaticsBaseURL: getEnv("SPEECHMATICS_BASE_URL", ""),
	}

	cooldown, err := time.ParseDuration(getEnv("CATALOG_COOLDOWN", "5s"))
	if err != nil || cooldown < 0 {
		return nil, fmt.Errorf("invalid CATALOG_COOLDOWN %q: must be a non-negative duration such as 5s", os.Getenv("CATALOG_COOLDOWN"))
	}
	cfg.CatalogCooldown = cooldown

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		log := logger.Component("config")
		log.Error().Str("PORT", os.Getenv("PORT")).Msg("Invalid PORT environment variable. Falling back to default.")
		cfg.Port = "8585"
	}

	return cfg, nil
}

// loadKey reads a base64 key of at least 32 bytes from env, or generates
// a random one that will change on each restart.
func loadKey(env string) []byte {
	log := logger.Component("config")
	raw := os.Getenv(env)
	if raw == "" {
		log.Warn().Str("key", env).Msg("Key not set. Generating a random key for development. PLEASE SET IT IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		log.Warn().Str("key", env).Msg("Key is invalid or shorter than 32 bytes. Generating a random key for development.")
		return generateRandomBytes(32)
	}
	return decoded
}

// Plaintext reports whether the server runs without TLS in front of it.
func (c *Config) Plaintext() bool {
	return !c.CookieSecure
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// generateRandomBytes generates a random byte slice of specified length
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log := logger.Component("config")
		log.Error().Err(err).Msg("Failed to read random bytes")
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		padded := make([]byte, n)
		copy(padded, fallbackKey)
		return padded
	}
	return b
}
