package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the dashboard backend
type Config struct {
	// Server
	ServerPort string

	// SQLite document store
	DBPath string

	// Redis (optional). An empty RedisAddr disables the pub/sub bridge and
	// change events are fed straight into the local WebSocket hub.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional API key for the ingress endpoints. Empty disables the check.
	APIKey string

	// Robot name terminals report when no EA is attached to the account.
	// Accounts carrying this name are skipped by the EA rollups.
	NoEASentinel string
}

// LoadConfig reads configuration from .env / environment variables
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: .env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DBPath:        getEnv("SQLITE_PATH", "data/dashboard.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		APIKey:        getEnv("API_KEY", ""),
		NoEASentinel:  getEnv("NO_EA_SENTINEL", "No Active EA"),
	}

	if cfg.APIKey == "" {
		log.Println("WARNING: API_KEY not set, ingress endpoints are unauthenticated")
	}

	return cfg
}

// getEnv returns the environment variable or a default when unset
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt returns the environment variable parsed as an integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}
