// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Secrets
	APISecret     string // Master secret; encryption key is derived from it when not set explicitly
	EncryptionKey []byte // 32-byte key for AES-256-GCM cookie encryption

	// Admin auth
	AdminAPIKeyHash string // Pre-hashed bootstrap admin key (sha256 hex)

	// CORS
	CORSOrigins []string

	// Resolution pipeline
	CacheTTL       time.Duration // How long cached extraction results stay valid
	ExtractTimeout time.Duration // Per-extraction upstream budget

	// Cookie pool backoff policy
	CookieCooldownAfter  int           // Consecutive failures before an entry enters cooldown
	CookieCooldownPeriod time.Duration // How long a cooldown lasts
	CookieExpireAfter    int           // Consecutive failures before an entry is expired

	// Rate limiting
	RateLimitPerMinute int

	// Maintenance worker
	WorkerInterval time.Duration

	// Runtime settings store (S3-compatible, optional)
	SettingsEndpoint  string // AWS_ENDPOINT_URL_S3 for S3-compatible stores
	SettingsAccessKey string // AWS_ACCESS_KEY_ID
	SettingsSecretKey string // AWS_SECRET_ACCESS_KEY
	SettingsRegion    string
	SettingsBucket    string
	SettingsKey       string

	// Env fallback when no settings bucket is configured
	MaintenanceMode   bool
	DisabledPlatforms []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:downaria.db?_journal=WAL&_timeout=5000"),

		APISecret:       getEnv("API_SECRET", ""),
		AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		CacheTTL:       getEnvDuration("CACHE_TTL", 72*time.Hour),
		ExtractTimeout: getEnvDuration("EXTRACT_TIMEOUT", 20*time.Second),

		CookieCooldownAfter:  getEnvInt("COOKIE_COOLDOWN_AFTER", 3),
		CookieCooldownPeriod: getEnvDuration("COOKIE_COOLDOWN_PERIOD", 30*time.Minute),
		CookieExpireAfter:    getEnvInt("COOKIE_EXPIRE_AFTER", 10),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		WorkerInterval: getEnvDuration("WORKER_INTERVAL", 5*time.Minute),

		SettingsEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		SettingsAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SettingsSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SettingsRegion:    getEnv("AWS_REGION", "auto"),
		SettingsBucket:    getEnv("SETTINGS_BUCKET", ""),
		SettingsKey:       getEnv("SETTINGS_KEY", "config/runtime_settings.json"),

		MaintenanceMode:   getEnvBool("MAINTENANCE_MODE", false),
		DisabledPlatforms: getEnvSlice("DISABLED_PLATFORMS", nil),
	}

	if cfg.CookieCooldownAfter < 1 {
		return nil, fmt.Errorf("COOKIE_COOLDOWN_AFTER must be at least 1")
	}
	if cfg.CookieExpireAfter < cfg.CookieCooldownAfter {
		return nil, fmt.Errorf("COOKIE_EXPIRE_AFTER must be >= COOKIE_COOLDOWN_AFTER")
	}

	// Set up encryption key (derive from the API secret if not explicitly set)
	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	switch {
	case encKeyStr != "":
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	case cfg.APISecret != "":
		cfg.EncryptionKey = deriveEncryptionKey(cfg.APISecret)
	default:
		return nil, fmt.Errorf("either ENCRYPTION_KEY or API_SECRET must be set")
	}

	return cfg, nil
}

// SettingsStoreEnabled returns true if the S3-backed runtime settings store is configured.
func (c *Config) SettingsStoreEnabled() bool {
	return c.SettingsBucket != "" && c.SettingsEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string using HKDF.
// HKDF is appropriate for deriving keys from high-entropy secrets like API_SECRET.
// For low-entropy passwords, use Argon2 instead.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("downaria-cookie-encryption-v1")
	info := []byte("aes-256-gcm-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		// This should never happen with valid inputs
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
