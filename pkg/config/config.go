package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	JWTTTL                  time.Duration

	// Broker selects the pub/sub implementation: "memory" or "redis".
	Broker   string
	RedisURL string
	// Cache selects the trending-list cache: "none", "memory" or "redis".
	Cache string

	SMTPHost     string
	SMTPPort     int
	SMTPSender   string
	SMTPPassword string
	SiteURL      string

	DigestSchedule  string
	CleanupSchedule string
	RetentionDays   int
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "devconnect"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:                  getDuration("JWT_TTL", 72*time.Hour),
		Broker:                  getEnv("BROKER", "memory"),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		Cache:                   getEnv("CACHE", "memory"),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getInt("SMTP_PORT", 587),
		SMTPSender:              getEnv("SMTP_SENDER", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SiteURL:                 getEnv("SITE_URL", "http://localhost:3000"),
		DigestSchedule:          getEnv("DIGEST_SCHEDULE", "0 9 * * *"),
		CleanupSchedule:         getEnv("CLEANUP_SCHEDULE", "0 0 * * 0"),
		RetentionDays:           getInt("RETENTION_DAYS", 30),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid integer %q, using default %d", value, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using default %s", value, defaultValue)
		return defaultValue
	}
	return d
}
