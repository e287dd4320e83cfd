package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Env               string
	Port              string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	PostgresDSN       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioUseSSL       bool
	MinioPublicURL    string
	SecureCookies     bool
	AllowedOrigins    []string
}

// Load reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() *Config {
	port := getenv("PORT", "8080")
	return &Config{
		Env:               getenv("APP_ENV", "development"),
		Port:              port,
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "spot_finder"),
		MongoTransactions: getbool("MONGO_TRANSACTIONS", false),
		PostgresDSN:       getenv("POSTGRES_DSN", ""),
		RedisAddr:         getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getint("REDIS_DB", 0),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getenv("MINIO_BUCKET", "spot-images"),
		MinioUseSSL:       getbool("MINIO_USE_SSL", false),
		MinioPublicURL:    getenv("MINIO_PUBLIC_URL", "http://localhost:"+port+"/api/images"),
		SecureCookies:     getbool("COOKIE_SECURE", false),
		AllowedOrigins:    getlist("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getint(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getlist(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
