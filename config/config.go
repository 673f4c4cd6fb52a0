package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	MySQL     MySQLConfig
	JWT       JWTConfig
	Tokens    TokenConfig
	Password  PasswordConfig
	Biometric BiometricConfig
	OCR       OCRConfig
	Upload    UploadConfig
	Mail      MailConfig
	Storage   StorageConfig
	Push      PushConfig
	Reminder  ReminderConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	Name          string
	PublicBaseURL string
}

type HTTPConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN         string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type TokenConfig struct {
	ResetTTL time.Duration
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

type BiometricConfig struct {
	RequireDeviceKey bool
}

type OCRConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type UploadConfig struct {
	MaxSize int64
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type PushConfig struct {
	PlatformApplicationARN string
	Region                 string
	ExpoURL                string
	ExpoAccessToken        string
	ExpoTimeout            time.Duration
}

type ReminderConfig struct {
	ReconcileSchedule string
	DispatchSchedule  string
	Location          *time.Location
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	TTL               time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	location, err := time.LoadLocation(getEnv("REMINDER_TIMEZONE", "Europe/Budapest"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE: %w", err)
	}

	httpPort := getEnv("HTTP_PORT", "8080")

	return &Config{
		App: AppConfig{
			Name:          getEnv("APP_NAME", "ID Card Vault"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+httpPort), "/"),
		},
		HTTP: HTTPConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: httpPort,
		},
		MySQL: MySQLConfig{
			DSN:         mysqlDSN,
			AutoMigrate: getBoolEnv("MYSQL_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:         jwtSecret,
			AccessTokenTTL: getDurationEnv("JWT_ACCESS_TOKEN_TTL", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			ResetTTL: getDurationEnv("RESET_TOKEN_TTL", time.Hour),
		},
		Password: PasswordConfig{
			Policy: loadPasswordPolicy(),
		},
		Biometric: BiometricConfig{
			RequireDeviceKey: getBoolEnv("BIOMETRIC_REQUIRE_DEVICE_KEY", true),
		},
		OCR: OCRConfig{
			URL:     getEnv("OCR_URL", "http://localhost:5000/upload"),
			APIKey:  os.Getenv("OCR_API_KEY"),
			Timeout: getSecondsEnv("OCR_TIMEOUT", 30*time.Second),
		},
		Upload: UploadConfig{
			MaxSize: int64(getIntEnv("UPLOAD_MAX_SIZE", 5*1024*1024)),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@localhost"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", getEnv("AWS_REGION", "eu-central-1")),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("S3_PREFIX", "id-cards/"),
		},
		Push: PushConfig{
			PlatformApplicationARN: os.Getenv("SNS_PLATFORM_APPLICATION_ARN"),
			Region:                 getEnv("SNS_REGION", getEnv("AWS_REGION", "eu-central-1")),
			ExpoURL:                getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
			ExpoAccessToken:        os.Getenv("EXPO_ACCESS_TOKEN"),
			ExpoTimeout:            getSecondsEnv("EXPO_PUSH_TIMEOUT", 10*time.Second),
		},
		Reminder: ReminderConfig{
			ReconcileSchedule: getEnv("REMINDER_RECONCILE_SCHEDULE", "0 8 * * *"),
			DispatchSchedule:  getEnv("REMINDER_DISPATCH_SCHEDULE", "@every 1m"),
			Location:          location,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_RPS", 5),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 10),
			TTL:               getDurationEnv("RATE_LIMIT_TTL", 3*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != ""
}

func (c *Config) PushEnabled() bool {
	return c.Push.PlatformApplicationARN != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a value expressed in minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}
