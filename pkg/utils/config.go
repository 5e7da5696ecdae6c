package utils

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret       string
	ExpiryHours  int
	CookieName   string
	SecureCookie bool
}

// PaymentConfig holds the processor credentials. It is built once at start-up
// and handed to the gateway adapter by pointer.
type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// LoadConfig reads an optional .env file at path, then overlays the process
// environment on top of it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "guidehub")
	v.SetDefault("PORT", "4000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_EXPIRY_HOURS", 24*7)
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT", "10s")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Port:           v.GetString("PORT"),
			Debug:          v.GetBool("DEBUG"),
			LogPath:        v.GetString("LOG_PATH"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			ExpiryHours:  v.GetInt("JWT_EXPIRY_HOURS"),
			CookieName:   v.GetString("COOKIE_NAME"),
			SecureCookie: v.GetBool("COOKIE_SECURE"),
		},
		Payment: PaymentConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
			Timeout:       v.GetDuration("PAYMENT_GATEWAY_TIMEOUT"),
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
