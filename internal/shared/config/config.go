package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	AllowedOrigins []string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Payment   PaymentConfig
	Kafka     KafkaConfig
	Reconcile ReconcileConfig
	Email     EmailConfig

	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	CacheTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	JWTExpiresIn     time.Duration
	RefreshExpiresIn time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled"`
	WindowDuration    time.Duration `json:"window_duration"`
	DefaultRequests   int           `json:"default_requests"`
	PublicRequests    int           `json:"public_requests"`
	AuthRequests      int           `json:"auth_requests"`
	PaymentRequests   int           `json:"payment_requests"`
	AdminRequests     int           `json:"admin_requests"`
	AnalyticsRequests int           `json:"analytics_requests"`
	WhitelistedIPs    []string      `json:"whitelisted_ips"`
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	// Gateway selects the order gateway: "razorpay" or "sandbox"
	Gateway       string
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	BookingTopic  string
	AlertTopic    string
	ConsumerGroup string
}

// ReconcileConfig holds settings for compensation and the reconciliation jobs
type ReconcileConfig struct {
	Interval             time.Duration
	ClaimTimeout         time.Duration
	PendingBookingTTL    time.Duration
	CompensationAttempts int
	CompensationBackoff  time.Duration
	BatchSize            int
}

// EmailConfig holds email configuration
type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB
		AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "eventhub_db"),
			User:     getEnv("DB_USER", "eventhub_user"),
			Password: getEnv("DB_PASSWORD", "eventhub_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 1*time.Hour),
		},

		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn:     getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getDurationEnvSeconds("JWT_REFRESH_EXPIRES_IN", 24*time.Hour),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:    getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:   getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:    getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			AuthRequests:      getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 10),
			PaymentRequests:   getIntEnv("RATE_LIMIT_PAYMENT_REQUESTS", 20),
			AdminRequests:     getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			AnalyticsRequests: getIntEnv("RATE_LIMIT_ANALYTICS_REQUESTS", 30),
			WhitelistedIPs:    getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		Payment: PaymentConfig{
			Gateway:       getEnv("PAYMENT_GATEWAY", "sandbox"),
			BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     getEnv("RAZORPAY_KEY_SECRET", "sandbox-secret"),
			WebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			Currency:      getEnv("PAYMENT_CURRENCY", "INR"),
			Timeout:       getDurationEnv("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		},

		Kafka: KafkaConfig{
			Enabled:       getBoolEnv("KAFKA_ENABLED", false),
			Brokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			BookingTopic:  getEnv("KAFKA_BOOKING_TOPIC", "eventhub.bookings"),
			AlertTopic:    getEnv("KAFKA_ALERT_TOPIC", "eventhub.ops-alerts"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "eventhub-notifications"),
		},

		Reconcile: ReconcileConfig{
			Interval:             getDurationEnv("RECONCILE_INTERVAL", 1*time.Minute),
			ClaimTimeout:         getDurationEnv("CLAIM_TIMEOUT", 2*time.Minute),
			PendingBookingTTL:    getDurationEnv("PENDING_BOOKING_TTL", 30*time.Minute),
			CompensationAttempts: getIntEnv("COMPENSATION_ATTEMPTS", 3),
			CompensationBackoff:  getDurationEnv("COMPENSATION_BACKOFF", 200*time.Millisecond),
			BatchSize:            getIntEnv("RECONCILE_BATCH_SIZE", 50),
		},

		Email: EmailConfig{
			Enabled:      getBoolEnv("EMAIL_ENABLED", false),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@eventhub.local"),
			FromName:     getEnv("FROM_NAME", "EventHub"),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds reads an integer number of seconds
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv reads a comma-separated list
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
