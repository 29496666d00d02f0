package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	S3        S3Config
	Pricing   PricingConfig
	Catalog   CatalogConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	// AdminKey guards the catalog and coupon admin routes; they are disabled when empty.
	AdminKey string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	CatalogPrefix   string
	Endpoint        string
}

type PricingConfig struct {
	MaxCartQuantity       int
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// CatalogConfig selects where catalog documents are read from: db, s3 or file.
type CatalogConfig struct {
	Source   string
	Dir      string
	CacheTTL time.Duration
}

type SchedulerConfig struct {
	CouponExpiryCron    string
	SettlementPruneCron string
	SettlementMaxAge    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			AdminKey:    getEnv("ADMIN_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "udonggeum_checkout"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "udonggeum-catalogs"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CatalogPrefix:   getEnv("AWS_S3_CATALOG_PREFIX", "catalogs/"),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		},
		Pricing: PricingConfig{
			MaxCartQuantity:       parseInt(getEnv("MAX_CART_QUANTITY", "99"), 99),
			FreeShippingThreshold: parseDecimal(getEnv("FREE_SHIPPING_THRESHOLD", "50000"), decimal.NewFromInt(50000)),
			ShippingFee:           parseDecimal(getEnv("SHIPPING_FEE", "3000"), decimal.NewFromInt(3000)),
		},
		Catalog: CatalogConfig{
			Source:   strings.ToLower(getEnv("CATALOG_SOURCE", "db")),
			Dir:      getEnv("CATALOG_DIR", "./catalogs"),
			CacheTTL: parseDuration(getEnv("CATALOG_CACHE_TTL", "10m"), 10*time.Minute),
		},
		Scheduler: SchedulerConfig{
			CouponExpiryCron:    getEnv("COUPON_EXPIRY_CRON", "0 * * * *"),
			SettlementPruneCron: getEnv("SETTLEMENT_PRUNE_CRON", "*/10 * * * *"),
			SettlementMaxAge:    parseDuration(getEnv("SETTLEMENT_MAX_AGE", "30m"), 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case "db", "s3", "file":
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE %q: want db, s3 or file", c.Catalog.Source)
	}
	if c.Pricing.MaxCartQuantity < 1 {
		return fmt.Errorf("MAX_CART_QUANTITY must be positive, got %d", c.Pricing.MaxCartQuantity)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Enabled reports whether a redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseDecimal(s string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Printf("Invalid amount %s, using default %s", s, fallback)
		return fallback
	}
	return d
}

func parseSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
