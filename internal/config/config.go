package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"parking_manager/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServerPort string `validate:"required,numeric"`
	LogLevel   string `validate:"oneof=debug info notice warning error critical"`

	DBDriver   string `validate:"oneof=postgres sqlite"`
	DBHost     string `validate:"required_if=DBDriver postgres"`
	DBPort     int    `validate:"required_if=DBDriver postgres,gte=0,lte=65535"`
	DBUser     string `validate:"required_if=DBDriver postgres"`
	DBPassword string
	DBName     string `validate:"required_if=DBDriver postgres"`
	DBSslMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBMaxOpen  int    `validate:"gte=1"`
	DBMaxIdle  int    `validate:"gte=0,ltefield=DBMaxOpen"`
	SQLitePath string `validate:"required_if=DBDriver sqlite"`

	HourlyRate float64 `validate:"gt=0"`

	JWTSecret     string        `validate:"required,min=16"`
	JWTExpiration time.Duration `validate:"gt=0"`

	AdminEmail    string `validate:"omitempty,email"`
	AdminPassword string `validate:"required_with=AdminEmail,omitempty,min=6,max=72"`

	AWSRegion        string
	SQSEventQueueURL string `validate:"omitempty,url"`

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warningf("could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxOpen, _ := strconv.Atoi(getEnv("DB_MAX_OPEN", "10"))
	maxIdle, _ := strconv.Atoi(getEnv("DB_MAX_IDLE", "5"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	hourlyRate, err := strconv.ParseFloat(getEnv("HOURLY_RATE", "20"), 64)
	if err != nil {
		hourlyRate = 0
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		DBMaxOpen:  maxOpen,
		DBMaxIdle:  maxIdle,
		SQLitePath: getEnv("SQLITE_PATH", "parking.db"),

		HourlyRate: hourlyRate,

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: time.Duration(jwtExpHours) * time.Hour,

		AdminEmail:    strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AWSRegion:        getEnv("AWS_REGION", "ap-southeast-1"),
		SQSEventQueueURL: getEnv("SQS_EVENT_QUEUE_URL", ""),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "parking.reservations"),
	}
}

// Validate checks the loaded values before anything is wired from them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	logger.Debugf("environment variable %s not set, using default", key)
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
