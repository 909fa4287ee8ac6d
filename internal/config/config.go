package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Token lifetimes are part of the protocol, not tunables.
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	Issuer = "izin-api"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	JWTSecret        []byte
	JWTRefreshSecret []byte

	// TokenHashKey keys the refresh-token digest (HMAC-SHA256). Empty means
	// plain SHA-256. Resolved once here; never re-read at call time.
	TokenHashKey []byte

	KafkaAddress string
	LogLevel     string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	cfg := &Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		TokenHashKey:     []byte(os.Getenv("REFRESH_TOKEN_SECRET")),
		KafkaAddress:     os.Getenv("KAFKA_ADDRESS"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
		)
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTRefreshSecret) == 0 {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
