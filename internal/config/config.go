// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort       string
	JWTSecretKey     string
	DatabasePath     string
	PineconeAPIKey   string
	AssistantBaseURL string
	OpenAIAPIKey     string
	DefaultAssistant string
	Environment      string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		JWTSecretKey:     getEnv("JWT_SECRET_KEY", ""),
		DatabasePath:     getEnv("DATABASE_PATH", "ttrpg-buddy.db"),
		PineconeAPIKey:   getEnv("PINECONE_API_KEY", ""),
		AssistantBaseURL: getEnv("ASSISTANT_BASE_URL", "https://prod-1-data.ke.pinecone.io"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		DefaultAssistant: getEnv("DEFAULT_ASSISTANT", "ttrpg-buddy"),
		Environment:      env,
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.PineconeAPIKey == "" {
			missing = append(missing, "PINECONE_API_KEY")
		}
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
