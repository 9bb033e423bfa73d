package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DBPostgres = "postgres"
	DBMongo    = "mongo"
	DBMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	CORSOrigins  string

	DBType        string
	DatabaseURL   string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	MongoURL      string
	MongoDatabase string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// ulule/limiter formatted rate, e.g. "300-M"
	RateLimit string

	R2AccountID       string
	R2Bucket          string
	R2PublicURL       string
	R2AccessKeyID     string
	R2SecretAccessKey string

	AssetDir     string
	AssetBaseURL string
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DB_TYPE", DBPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "backoffice")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("MONGO_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "backoffice")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "backoffice-api")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("ASSET_DIR", "./uploads")
	v.SetDefault("LOCAL_ASSET_BASE_URL", "http://localhost:3000/assets")
	v.AutomaticEnv()

	cfg := &Config{
		Port:              v.GetString("PORT"),
		IsProduction:      v.GetBool("IS_PRODUCTION"),
		CORSOrigins:       v.GetString("CORS_ORIGINS"),
		DBType:            strings.ToLower(v.GetString("DB_TYPE")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		DBHost:            v.GetString("DB_HOST"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		DBPort:            v.GetString("DB_PORT"),
		MongoURL:          v.GetString("MONGO_URL"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTIssuer:         v.GetString("JWT_ISSUER"),
		RateLimit:         v.GetString("RATE_LIMIT"),
		R2AccountID:       v.GetString("R2_ACCOUNT_ID"),
		R2Bucket:          v.GetString("R2_BUCKET"),
		R2PublicURL:       v.GetString("R2_PUBLIC_URL"),
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
		AssetDir:          v.GetString("ASSET_DIR"),
		AssetBaseURL:      v.GetString("LOCAL_ASSET_BASE_URL"),
	}

	ttl, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	switch cfg.DBType {
	case DBPostgres, DBMongo, DBMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
		log.Println("Warning: JWT_SECRET not set. Using an insecure development key.")
	}

	return cfg, nil
}
