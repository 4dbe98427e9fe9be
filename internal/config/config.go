package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddress   string
	JWTSecret       string
	JWTExpiration   time.Duration
	MongoURI        string
	MongoDatabase   string
	DataDir         string
	OpenAIKey       string
	OpenAIModel     string
	AdminEmails     string
	ReconcileEvery  time.Duration
	LeaderboardSize int
}

func Load() *Config {
	return &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration:   24 * time.Hour,
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DB", "askaway"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AdminEmails:     getEnv("ADMIN_EMAILS", ""),
		ReconcileEvery:  getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
		LeaderboardSize: getEnvInt("LEADERBOARD_SIZE", 50),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
