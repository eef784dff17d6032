package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	Ollama   OllamaConfig
	Matching MatchingConfig
	Storage  StorageConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// GeminiConfig carries the credential for the structured extractor and the
// embedding backend. An empty APIKey is a valid state: structured extraction
// is skipped and the pipeline operates on raw text only.
type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	Endpoint string
	Model    string
}

// MatchingConfig holds the scoring knobs. WeightSimilarity and
// WeightExperience must sum to 1.0; the ranker validates them at run time.
type MatchingConfig struct {
	WeightSimilarity float64
	WeightExperience float64
	Parallelism      int
	MaxResumes       int
	EmbedTimeout     time.Duration
	RatingTimeout    time.Duration
	StructureTimeout time.Duration
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency      int
	RetryMaxAttempts int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_matcher"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Ollama: OllamaConfig{
			Endpoint: getEnv("OLLAMA_ENDPOINT", "http://localhost:11434"),
			Model:    getEnv("OLLAMA_MODEL", "llama3.2:3b"),
		},
		Matching: MatchingConfig{
			WeightSimilarity: getEnvAsFloat("WEIGHT_SIMILARITY", 0.6),
			WeightExperience: getEnvAsFloat("WEIGHT_EXPERIENCE", 0.4),
			Parallelism:      getEnvAsInt("MATCH_PARALLELISM", 2),
			MaxResumes:       getEnvAsInt("MAX_RESUMES", 10),
			EmbedTimeout:     getEnvAsDuration("EMBED_TIMEOUT", "20s"),
			RatingTimeout:    getEnvAsDuration("RATING_TIMEOUT", "90s"),
			StructureTimeout: getEnvAsDuration("STRUCTURE_TIMEOUT", "45s"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvAsInt("WORKER_CONCURRENCY", 2),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
