package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	JWTPrivateKeyPath    string
	JWTPublicKeyPath     string
	JWTExpiry            time.Duration
	RefreshTokenExpiry   time.Duration
	GoogleClientID       string
	VerificationValidity time.Duration // how long a verified record stays valid
	SyncMaxBatchItems    int           // cap on valid items per sync transaction

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Sessions      string
	Devices       string
	Notifications string
	Files         string
	Verifications string
	AuthCodes     string
	Services      string
	Categories    string
	Bids          string
	Bookings      string
	Threads       string
	Messages      string
	AppVersions   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Devices:       getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Files:         getEnv("DYNAMO_TABLE_FILES", "files"),
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "verifications"),
			AuthCodes:     getEnv("DYNAMO_TABLE_AUTH_CODES", "auth_codes"),
			Services:      getEnv("DYNAMO_TABLE_SERVICES", "services"),
			Categories:    getEnv("DYNAMO_TABLE_CATEGORIES", "categories"),
			Bids:          getEnv("DYNAMO_TABLE_BIDS", "bids"),
			Bookings:      getEnv("DYNAMO_TABLE_BOOKINGS", "bookings"),
			Threads:       getEnv("DYNAMO_TABLE_THREADS", "threads"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
			AppVersions:   getEnv("DYNAMO_TABLE_APP_VERSIONS", "app_versions"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "servicelink-files"),

		JWTPrivateKeyPath:    getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:     getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:            time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenExpiry:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		VerificationValidity: time.Duration(getEnvInt("VERIFICATION_VALIDITY_DAYS", 365)) * 24 * time.Hour,
		SyncMaxBatchItems:    getEnvInt("SYNC_MAX_BATCH_ITEMS", 100),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@servicelink.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
