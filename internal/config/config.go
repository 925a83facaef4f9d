package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	// Store selects the persistence backend: "postgres" or "memory".
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Razorpay struct {
		KeyID         string `mapstructure:"key_id"`
		KeySecret     string `mapstructure:"key_secret"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"razorpay"`

	Billing struct {
		Currency        string  `mapstructure:"currency"`
		ReferencePrefix string  `mapstructure:"reference_prefix"`
		InitialRate     float64 `mapstructure:"initial_rate"`
	} `mapstructure:"billing"`

	Uploads struct {
		Driver    string `mapstructure:"driver"` // s3 or local
		LocalDir  string `mapstructure:"local_dir"`
		Bucket    string `mapstructure:"bucket"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"uploads"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Reminders struct {
		Enabled        bool   `mapstructure:"enabled"`
		Schedule       string `mapstructure:"schedule"`
		Fast2SMSAPIKey string `mapstructure:"fast2sms_api_key"`
		SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
		FromEmail      string `mapstructure:"from_email"`
		FromName       string `mapstructure:"from_name"`
	} `mapstructure:"reminders"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// Load reads configs/config.yaml (optional) and environment overrides.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	applyEnv(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "rent_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "rent-backend")
	v.SetDefault("billing.currency", "INR")
	v.SetDefault("billing.reference_prefix", "RENT")
	v.SetDefault("billing.initial_rate", 0.12)
	v.SetDefault("uploads.driver", "local")
	v.SetDefault("uploads.local_dir", "static/uploads")
	v.SetDefault("uploads.region", "auto")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.schedule", "0 9 * * *")
	v.SetDefault("reminders.from_name", "Rent Manager")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func applyEnv(cfg *Config) {
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	}

	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}
	if webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Razorpay.WebhookSecret = webhookSecret
	}

	if key := os.Getenv("UPLOADS_ACCESS_KEY"); key != "" {
		cfg.Uploads.AccessKey = key
	}
	if secret := os.Getenv("UPLOADS_SECRET_KEY"); secret != "" {
		cfg.Uploads.SecretKey = secret
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if key := os.Getenv("FAST2SMS_API_KEY"); key != "" {
		cfg.Reminders.Fast2SMSAPIKey = key
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		cfg.Reminders.SendGridAPIKey = key
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
