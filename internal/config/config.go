/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all the configuration variables for the payment-method-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	StoreBackend          string `mapstructure:"STORE_BACKEND"`
	AutoMigrate           bool   `mapstructure:"AUTO_MIGRATE"`
	CardEncryptionKey     string `mapstructure:"CARD_ENCRYPTION_KEY"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	PaymentMethodExchange string `mapstructure:"PAYMENT_METHOD_EXCHANGE"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix  string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RateLimitPerMinute    int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	ClerkJWKSURL          string `mapstructure:"CLERK_JWKS_URL"`
	ClerkAudience         string `mapstructure:"CLERK_AUDIENCE"`
	ClerkIssuer           string `mapstructure:"CLERK_ISSUER"`
	JWKSRefreshSchedule   string `mapstructure:"JWKS_REFRESH_SCHEDULE"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	AllowedOrigins        string `mapstructure:"ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("STORE_BACKEND", StoreBackendPostgres)
	viper.SetDefault("AUTO_MIGRATE", false)
	viper.SetDefault("PAYMENT_METHOD_EXCHANGE", "transfa.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "transfa:rate_limit")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("JWKS_REFRESH_SCHEDULE", "@every 15m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "https://*,http://*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("STORE_BACKEND")
	_ = viper.BindEnv("AUTO_MIGRATE")
	_ = viper.BindEnv("CARD_ENCRYPTION_KEY")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_METHOD_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "PAYMENT_METHOD_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("CLERK_AUDIENCE")
	_ = viper.BindEnv("CLERK_ISSUER")
	_ = viper.BindEnv("JWKS_REFRESH_SCHEDULE")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).WithField("component", "config").Warn("failed to read config file; using environment values")
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.StoreBackend = strings.ToLower(strings.TrimSpace(config.StoreBackend))
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.CardEncryptionKey = strings.TrimSpace(config.CardEncryptionKey)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "transfa:rate_limit"
	}
	if config.RateLimitPerMinute < 0 {
		logrus.WithField("component", "config").WithField("value", config.RateLimitPerMinute).Warn("negative rate limit configured; disabling rate limiting")
		config.RateLimitPerMinute = 0
	}

	err = config.Validate()
	return
}

// Validate reports configuration combinations the service cannot start with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.CardEncryptionKey != "" {
		key, err := hex.DecodeString(c.CardEncryptionKey)
		if err != nil || len(key) != 32 {
			return errors.New("CARD_ENCRYPTION_KEY must be 32 bytes hex-encoded")
		}
	}
	return nil
}

// Origins splits AllowedOrigins into a list for the CORS middleware.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
