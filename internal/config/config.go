package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	RedisAddr  string
	RedisDB    int
	RedisPass  string

	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	BcryptCost int

	// AllowRegisterRole honors a client-supplied role on registration.
	// Off by default: every self-registered account starts as "user" and
	// elevation goes through the admin user endpoints.
	AllowRegisterRole bool

	Debug       bool
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		MySQLDSN:          getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/authgate?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:            getEnvDuration("JWT_TTL", 168*time.Hour),
		JWTIssuer:         getEnv("JWT_ISSUER", "authgate"),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),
		AllowRegisterRole: getEnvBool("ALLOW_REGISTER_ROLE", false),
		Debug:             getEnvBool("DEBUG", false),
		SwaggerHost:       os.Getenv("SWAGGER_HOST"),
	}

	if cfg.JWTSecret == defaultJWTSecret && !cfg.Debug {
		log.Println("WARNING: JWT_SECRET is unset, using an insecure default; set a high-entropy secret in production")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
