package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB      int    `mapstructure:"REDIS_LOCK_DB"`
	RedisTaskQueueDB int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Stripe secret key used for refunds.
	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Wall-clock zone that session times are interpreted in.
	TimeZone string `mapstructure:"TIME_ZONE"`

	// Fee schedule.
	BookingFeeRate       float64 `mapstructure:"BOOKING_FEE_RATE"`
	RefundBookingFeeRate float64 `mapstructure:"REFUND_BOOKING_FEE_RATE"`
	CardFeePercent       float64 `mapstructure:"CARD_FEE_PERCENT"`
	CardFeeFixed         float64 `mapstructure:"CARD_FEE_FIXED"`
	BankFeePercent       float64 `mapstructure:"BANK_FEE_PERCENT"`
	BankFeeCap           float64 `mapstructure:"BANK_FEE_CAP"`

	// Cancellation booking-window retry cap.
	BookingWindowAttempts int `mapstructure:"BOOKING_WINDOW_ATTEMPTS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "carebook")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("TIME_ZONE", "UTC")
	viper.SetDefault("BOOKING_FEE_RATE", 0.05)
	viper.SetDefault("REFUND_BOOKING_FEE_RATE", 0.02)
	viper.SetDefault("CARD_FEE_PERCENT", 0.029)
	viper.SetDefault("CARD_FEE_FIXED", 0.30)
	viper.SetDefault("BANK_FEE_PERCENT", 0.008)
	viper.SetDefault("BANK_FEE_CAP", 5.00)
	viper.SetDefault("BOOKING_WINDOW_ATTEMPTS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
