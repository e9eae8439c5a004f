package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the pricing service.
type Config struct {
	Port string
	Env  string

	RedisURL       string
	CartTTL        time.Duration
	SessionIdleTTL time.Duration
	IdempotencyTTL time.Duration

	KafkaBrokers       string
	KafkaCartTopic     string
	KafkaCheckoutTopic string

	// SNS topic for coupon_applied events; empty disables publishing.
	CouponSNSTopicARN string

	CloudWatchEnabled   bool
	CloudWatchNamespace string

	CouponRegistryEnabled bool
	PostgresUser          string
	PostgresPassword      string
	PostgresDB            string
	PostgresHost          string
	PostgresPort          string
	PostgresSSLMode       string
	PostgresTimeZone      string

	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
	CouponRate            decimal.Decimal
	CouponCap             decimal.Decimal

	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from the environment, loading a .env file first
// when one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var err error
	cfg := Config{
		Port:                  getEnv("PORT", "8086"),
		Env:                   getEnv("APP_ENV", "development"),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:          os.Getenv("KAFKA_BROKERS"),
		KafkaCartTopic:        getEnv("KAFKA_CART_TOPIC", "cart.events"),
		KafkaCheckoutTopic:    getEnv("KAFKA_CHECKOUT_TOPIC", "checkout.requested"),
		CouponSNSTopicARN:     os.Getenv("COUPON_SNS_TOPIC_ARN"),
		CloudWatchNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "PricingService"),
		PostgresUser:          os.Getenv("POSTGRES_USER"),
		PostgresPassword:      os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:            os.Getenv("POSTGRES_DB"),
		PostgresHost:          getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:          getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:       getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:      getEnv("POSTGRES_TIMEZONE", "UTC"),
	}

	if cfg.CartTTL, err = getEnvDuration("CART_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdleTTL, err = getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getEnvDuration("CHECKOUT_IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CouponRegistryEnabled, err = getEnvBool("COUPON_REGISTRY_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.CloudWatchEnabled, err = getEnvBool("CLOUDWATCH_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.FreeShippingThreshold, err = getEnvDecimal("FREE_SHIPPING_THRESHOLD", "100.00"); err != nil {
		return Config{}, err
	}
	if cfg.FlatShippingRate, err = getEnvDecimal("FLAT_SHIPPING_RATE", "10.00"); err != nil {
		return Config{}, err
	}
	if cfg.CouponRate, err = getEnvDecimal("COUPON_RATE", "0.10"); err != nil {
		return Config{}, err
	}
	if cfg.CouponCap, err = getEnvDecimal("COUPON_CAP", "50.00"); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 50); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PostgresDSN builds the gorm DSN for the coupon registry.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func (c Config) validate() error {
	for name, v := range map[string]decimal.Decimal{
		"FREE_SHIPPING_THRESHOLD": c.FreeShippingThreshold,
		"FLAT_SHIPPING_RATE":      c.FlatShippingRate,
		"COUPON_CAP":              c.CouponCap,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.CouponRate.IsNegative() || c.CouponRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("COUPON_RATE must be between 0 and 1")
	}
	if c.SessionIdleTTL != 0 && c.SessionIdleTTL < time.Second {
		return fmt.Errorf("SESSION_IDLE_TTL must be 0 (never evict) or at least 1s")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	if c.CouponRegistryEnabled && (c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "") {
		return fmt.Errorf("coupon registry enabled but database config incomplete")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
