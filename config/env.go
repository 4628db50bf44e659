package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis  RedisConfig
	DB     DBConfig
	Auth   AuthConfig
	Server ServerConfig
	Shop   ShopConfig
}

type DBConfig struct {
	DSN           string
	AdminPassword string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type ServerConfig struct {
	HTTPPort  string
	GRPCPort  string
	RateLimit string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttlMinutes, err := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "1440"))
	if err != nil || ttlMinutes <= 0 {
		ttlMinutes = 24 * 60
	}

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "a_very_secret_key_for_whisk_and_whisk"),
			TokenTTL:  time.Duration(ttlMinutes) * time.Minute,
		},
		Server: ServerConfig{
			HTTPPort:  getEnv("HTTP_PORT", "8080"),
			GRPCPort:  getEnv("GRPC_PORT", "50052"),
			RateLimit: getEnv("RATE_LIMIT", "100-M"),
		},
		Shop: LoadShopConfig(getEnv("SHOP_CONFIG", "config/shop.toml")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
