package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBType         string
	PostgresURL    string
	DBMaxOpen      int
	DBMaxIdle      int
	DBMaxLifetime  time.Duration
	MigrationsPath string
	MongoURL       string
	MongoDB        string

	LogLevel  string
	LogFormat string

	SessionTTL time.Duration
	CORSOrigin string
	AppBaseURL string

	SettleInterval time.Duration
	SettleBatch    int
	SettleWorkers  int

	PaymentBaseURL   string
	PaymentSecretKey string

	R2 R2Config
}

// R2Config holds Cloudflare R2 credentials. Object storage is disabled when
// any of the required fields is empty.
type R2Config struct {
	AccountID       string
	Bucket          string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != "" && c.PublicURL != ""
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBType:         getEnv("DB_TYPE", "postgres"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		DBMaxOpen:      getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdle:      getInt("DB_MAX_IDLE_CONNS", 4),
		DBMaxLifetime:  getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://db/migrations"),
		MongoURL:       os.Getenv("MONGO_URL"),
		MongoDB:        getEnv("MONGO_DB", "dailybread"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		AppBaseURL: strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),

		SettleInterval: getDuration("SETTLE_INTERVAL", time.Minute),
		SettleBatch:    getInt("SETTLE_BATCH", 25),
		SettleWorkers:  getInt("SETTLE_WORKERS", 4),

		PaymentBaseURL:   os.Getenv("PAYMENT_BASE_URL"),
		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),

		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			Bucket:          os.Getenv("R2_BUCKET"),
			PublicURL:       os.Getenv("R2_PUBLIC_URL"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		},
	}
	return cfg
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBType {
	case "postgres":
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when DB_TYPE=postgres"))
		}
	case "memory":
	default:
		errs = append(errs, errors.New("DB_TYPE must be postgres or memory"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SettleInterval <= 0 {
		errs = append(errs, errors.New("SETTLE_INTERVAL must be positive"))
	}
	if c.SettleWorkers < 1 {
		errs = append(errs, errors.New("SETTLE_WORKERS must be at least 1"))
	}
	if c.PaymentSecretKey != "" && c.PaymentBaseURL == "" {
		errs = append(errs, errors.New("PAYMENT_BASE_URL is required when PAYMENT_SECRET_KEY is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
