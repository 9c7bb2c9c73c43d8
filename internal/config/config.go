package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	MediaDir     string
	LogFile      string
	TemplatesDir string
	StaticDir    string
	SessionTTL   time.Duration
	CookieSecure bool
	EnforceStock bool

	// Requests per minute per client; LoginRateLimit is per 10 minutes.
	RateLimit      int
	LoginRateLimit int
}

func Load() Config {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDSN:        getEnv("DB_DSN", "qashop.db"), // sqlite file in project root
		MediaDir:     getEnv("MEDIA_DIR", "./web/media"),
		LogFile:      getEnv("LOG_FILE", "./qashop.log"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:    getEnv("STATIC_DIR", "./web/static"),
		SessionTTL:   getEnvDuration("SESSION_TTL", time.Hour),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
		EnforceStock: getEnvBool("ENFORCE_STOCK", false),

		RateLimit:      getEnvInt("RATE_LIMIT", 60),
		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 5),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s SESSION_TTL=%s ENFORCE_STOCK=%t",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.SessionTTL, cfg.EnforceStock)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
