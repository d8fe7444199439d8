package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Document store backends
const (
	DocStoreFirestore = "firestore"
	DocStoreMongo     = "mongo"
	DocStoreMemory    = "memory"
)

// Media store backends
const (
	MediaStoreLocal  = "local"
	MediaStoreBucket = "bucket"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	DocStore                string
	MediaStore              string
	MediaRoot               string
	JWTSecret               string
	TokenTTL                time.Duration
	StackTTL                time.Duration
	SessionIdleTTL          time.Duration
}

// Load reads the configuration from the environment, after loading an
// optional .env file
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "snapfeed"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		DocStore:                getEnv("DOC_STORE", DocStoreMemory),
		MediaStore:              getEnv("MEDIA_STORE", MediaStoreLocal),
		MediaRoot:               getEnv("MEDIA_ROOT", "./data/media"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		TokenTTL:                getDuration("TOKEN_TTL", 72*time.Hour),
		StackTTL:                getDuration("STACK_TTL", 30*24*time.Hour),
		SessionIdleTTL:          getDuration("SESSION_IDLE_TTL", 30*time.Minute),
	}
}

// IsProduction reports whether ENV selects production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
