package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	TemplatesDir string
	StaticDir    string

	SessionTTL time.Duration
	RedisAddr  string

	RateLimit      int // requests per minute per IP, 0 disables
	LoginRateLimit int // login attempts per 10 minutes, 0 disables

	PayPalAPI      string
	PayPalClientID string
	PayPalSecret   string
	Currency       string
	ReturnURL      string

	QRAPI       string
	QRAPIKey    string
	QRProjectID string

	PaymentTimeout time.Duration

	KafkaBrokers string
	KafkaTopic   string
}

func Load() Config {
	cfg := Config{
		Port:         env("PORT", "3000"),
		DBDSN:        env("DB_DSN", "supermart.db"), // sqlite file in project root
		LogFile:      env("LOG_FILE", "./supermart.log"),
		TemplatesDir: env("TEMPLATES_DIR", "./web/templates"),
		StaticDir:    env("STATIC_DIR", "./web/static"),

		SessionTTL: envDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:  os.Getenv("REDIS_ADDR"),

		RateLimit:      envInt("RATE_LIMIT", 120),
		LoginRateLimit: envInt("LOGIN_RATE_LIMIT", 5),

		PayPalAPI:      env("PAYPAL_API", "https://api-m.sandbox.paypal.com"),
		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_CLIENT_SECRET"),
		Currency:       env("PAYPAL_CURRENCY", "SGD"),
		ReturnURL:      env("RETURN_URL", "http://localhost:3000"),

		QRAPI:       os.Getenv("QR_API"),
		QRAPIKey:    os.Getenv("QR_API_KEY"),
		QRProjectID: os.Getenv("QR_PROJECT_ID"),

		PaymentTimeout: envDuration("PAYMENT_TIMEOUT", 15*time.Second),

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   env("KAFKA_TOPIC", "payments"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS=%t PAYPAL=%t QR=%t KAFKA=%t",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.RedisAddr != "", cfg.PayPalClientID != "", cfg.QRAPI != "", cfg.KafkaBrokers != "")
	return cfg
}

func env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(env(k, ""))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(env(k, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
