package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	HTTPAddr      string

	// Scan loop
	ScanInterval   time.Duration
	LookbackDays   int
	CandleInterval string

	// P&F chart construction
	BoxPct      float64 // box size as a fraction, e.g. 0.0025 = 0.25%
	ReversalLen int     // boxes required for a column reversal

	// RSI momentum alerts
	RSIEnabled    bool
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64

	// Notification channels
	TelegramBotToken string
	TelegramChatID   int64
	WebhookURL       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/alerts.db"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":9090"),

		ScanInterval:   getEnvDuration("SCAN_INTERVAL", time.Minute),
		LookbackDays:   getEnvInt("LOOKBACK_DAYS", 30),
		CandleInterval: getEnv("CANDLE_INTERVAL", "1minute"),

		BoxPct:      getEnvFloat("PNF_BOX_PCT", 0.0025),
		ReversalLen: getEnvInt("PNF_REVERSAL", 3),

		RSIEnabled:    getEnvBool("RSI_ALERTS_ENABLED", true),
		RSIPeriod:     getEnvInt("RSI_PERIOD", 9),
		RSIOverbought: getEnvFloat("RSI_OVERBOUGHT", 60),
		RSIOversold:   getEnvFloat("RSI_OVERSOLD", 40),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
		WebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
