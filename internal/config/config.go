package config

import (
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping
	"strings" // Driver normalisation
	"time"    // Durations

	"github.com/caarlos0/env/v11" // Environment parsing into tagged structs
	"github.com/joho/godotenv"    // For loading .env files
	"golang.org/x/crypto/bcrypt"  // Cost bounds
)

// Supported user store backends
const (
	StoreMySQL  = "mysql"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Supported avatar storage backends
const (
	AvatarLocal = "local"
	AvatarS3    = "s3"
)

// ErrMissingSecret is returned when no JWT secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Config holds the application configuration
type Config struct {
	AppPort   string `env:"PORT" envDefault:"3001"`      // Application port
	IsProd    bool   `env:"IS_PROD" envDefault:"false"`  // Is production environment
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"` // Logrus level name
	JWTSecret string `env:"JWT_SECRET"`                  // JWT secret key

	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`  // Token lifetime, 0 disables expiry
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"` // Password hashing work factor

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,https://ebank-app.vercel.app"` // CORS origins

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mysql"` // mysql, mongo or memory
	DBUser      string `env:"DB_USER"`                         // Database user
	DBPassword  string `env:"DB_PASSWORD"`                     // Database password
	DBHost      string `env:"DB_HOST" envDefault:"127.0.0.1"`  // Database host
	DBPort      string `env:"DB_PORT" envDefault:"3306"`       // Database port
	DBName      string `env:"DB_NAME" envDefault:"ebank"`      // Database name

	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://127.0.0.1:27017"` // Mongo connection string
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"ebank"`                // Mongo database name

	RedisAddr       string        `env:"REDIS_ADDR"`                         // Redis server address, empty disables caching
	RedisPass       string        `env:"REDIS_PASS"`                         // Redis password
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`            // Redis database number
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"60s"` // Profile cache lifetime

	AvatarStorage   string `env:"AVATAR_STORAGE" envDefault:"local"`      // local or s3
	AvatarDir       string `env:"AVATAR_DIR" envDefault:"uploads"`        // Root directory for local avatars
	MaxUploadMemory int64  `env:"MAX_UPLOAD_MEMORY" envDefault:"8388608"` // Multipart memory limit in bytes
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`       // S3 region
	S3Endpoint      string `env:"S3_ENDPOINT"`                            // S3 endpoint, e.g. MinIO
	S3Bucket        string `env:"S3_BUCKET" envDefault:"avatars"`         // S3 bucket
	S3AccessKey     string `env:"S3_ACCESS_KEY"`                          // S3 access key
	S3SecretKey     string `env:"S3_SECRET_KEY"`                          // S3 secret key
}

// LoadConfig loads configuration from the environment and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AvatarStorage = strings.ToLower(strings.TrimSpace(cfg.AvatarStorage))
	return cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	switch c.StoreDriver {
	case StoreMySQL, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.AvatarStorage {
	case AvatarLocal, AvatarS3:
	default:
		return fmt.Errorf("unknown AVATAR_STORAGE %q", c.AvatarStorage)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	return nil
}

// MySQLDSN builds the Data Source Name for the MySQL connection
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
