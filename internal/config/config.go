// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Storage     StorageConfig
	Payment     PaymentConfig
	Geocoding   GeocodingConfig
	Kafka       KafkaConfig
	Frontend    FrontendConfig
	Log         LogConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	AutoMigrate  bool
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in minutes
}

type CookieConfig struct {
	Name   string
	Domain string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// StorageConfig applies when no S3 credentials are configured.
type StorageConfig struct {
	LocalDir      string
	PublicBaseURL string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	Currency             string
	SuccessURL           string
	CancelURL            string
	AllowedCountries     []string

	// Optional overrides; when all three are set the Stripe lookup at startup is skipped.
	ShippingRateStandard      string
	ShippingRateExpress       string
	ShippingRateComplimentary string

	ComplimentaryShippingWeight float64
}

type GeocodingConfig struct {
	APIKey          string
	BaseURL         string
	TimeoutSeconds  int
	CacheTTLMinutes int
}

type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	frontendURL := getEnv("FRONTEND_BASE_URL", "http://localhost:3000")

	config := &Config{
		Environment: getEnv("ENVIRONMENT", EnvDevelopment),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL: getEnvAsInt("JWT_EXPIRE_TIMEOUT_MINUTES", 60*24),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", "session"),
			Domain: getEnv("COOKIE_DOMAIN", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "storefront-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:      getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: getEnv("UPLOAD_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:             getEnv("STRIPE_PRIVATE_KEY", ""),
			StripePublishableKey:        getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			StripeWebhookSecret:         getEnv("STRIPE_SIGNING_KEY", ""),
			Currency:                    strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
			SuccessURL:                  getEnv("CHECKOUT_SUCCESS_URL", frontendURL+"/checkout/success"),
			CancelURL:                   getEnv("CHECKOUT_CANCEL_URL", frontendURL+"/cart"),
			AllowedCountries:            getEnvAsSlice("CHECKOUT_ALLOWED_COUNTRIES", []string{"US"}),
			ShippingRateStandard:        getEnv("STRIPE_SHIPPING_RATE_STANDARD", ""),
			ShippingRateExpress:         getEnv("STRIPE_SHIPPING_RATE_EXPRESS", ""),
			ShippingRateComplimentary:   getEnv("STRIPE_SHIPPING_RATE_COMPLIMENTARY", ""),
			ComplimentaryShippingWeight: getEnvAsFloat("COMPLIMENTARY_SHIPPING_WEIGHT", 20),
		},
		Geocoding: GeocodingConfig{
			APIKey:          getEnv("POSITIONSTACK_API_KEY", ""),
			BaseURL:         getEnv("POSITIONSTACK_BASE_URL", "http://api.positionstack.com/v1/forward"),
			TimeoutSeconds:  getEnvAsInt("GEOCODING_TIMEOUT_SECONDS", 5),
			CacheTTLMinutes: getEnvAsInt("GEOCODING_CACHE_TTL_MINUTES", 60*24*7),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvAsSlice("KAFKA_BROKERS", nil),
			OrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders.placed"),
		},
		Frontend: FrontendConfig{
			BaseURL: frontendURL,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, config.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid environment %q, expected one of development, staging, production", c.Environment)
	}

	if !c.IsProduction() {
		return nil
	}

	if c.JWT.SecretKey == defaultJWTSecret {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Payment.StripeWebhookSecret == "" {
		return fmt.Errorf("stripe webhook signing key is required in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
