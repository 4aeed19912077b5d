package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the process reads at startup. Values come
// from the environment with an optional .env file on top.
type Config struct {
	ServiceName string
	Env         string
	Addr        string

	// Store selects the persistence backend: "memory" or "postgres".
	Store         string
	PostgresDSN   string
	MigrationsDir string

	// RedisAddr enables the cart read cache when non-empty.
	RedisAddr     string
	RedisPassword string

	JWTSecret string
	// TokenTTL is the credential expiration window; resolution fails once a
	// token is older than this.
	TokenTTL time.Duration

	// Gateway selects the payment gateway backend: "stub" or "stripe".
	Gateway            string
	StripeSecret       string
	StripeBaseURL      string
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	ShippingFee     float64
	TaxRate         float64
	DiscountPercent float64

	CartTTL      time.Duration
	ReapInterval time.Duration

	LowStockThreshold int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: getenv("SERVICE_NAME", "shopd"),
		Env:         getenv("ENV", "dev"),
		Addr:        getenv("ADDR", ":8080"),

		Store:         getenv("STORE", "memory"),
		PostgresDSN:   getenv("POSTGRES_DSN", "host=localhost port=5432 user=shopd password=shopd dbname=shopd sslmode=disable"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "migrations"),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		JWTSecret: getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		Gateway:            getenv("GATEWAY", "stub"),
		StripeSecret:       getenv("STRIPE_SECRET", ""),
		StripeBaseURL:      getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		CheckoutSuccessURL: getenv("CHECKOUT_SUCCESS_URL", "http://localhost:8080/checkout/success"),
		CheckoutCancelURL:  getenv("CHECKOUT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),

		ShippingFee:     getenvFloat("SHIPPING_FEE", 0),
		TaxRate:         getenvFloat("TAX_RATE", 0),
		DiscountPercent: getenvFloat("DISCOUNT_PERCENT", 0),

		CartTTL:      getenvDuration("CART_TTL", 48*time.Hour),
		ReapInterval: getenvDuration("CART_REAP_INTERVAL", 10*time.Minute),

		LowStockThreshold: getenvInt("LOW_STOCK_THRESHOLD", 5),

		RateLimitRPS:   getenvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getenvInt("RATE_LIMIT_BURST", 40),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
