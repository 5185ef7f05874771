package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Dispatcher.
	Timezone          string        `mapstructure:"TIMEZONE"`
	DispatchSchedule  string        `mapstructure:"DISPATCH_SCHEDULE"`
	RunOnStart        bool          `mapstructure:"RUN_ON_START"`
	MatchMode         string        `mapstructure:"MATCH_MODE"`
	MaxCatchupMinutes int           `mapstructure:"MAX_CATCHUP_MINUTES"`
	DedupEnabled      bool          `mapstructure:"DEDUP_ENABLED"`
	RowConcurrency    int           `mapstructure:"ROW_CONCURRENCY"`
	ChannelTimeout    time.Duration `mapstructure:"CHANNEL_TIMEOUT"`

	// Delivery: "inline" or "queue".
	DeliveryMode     string `mapstructure:"DELIVERY_MODE"`
	QueueMaxRetry    int    `mapstructure:"QUEUE_MAX_RETRY"`
	QueueConcurrency int    `mapstructure:"QUEUE_CONCURRENCY"`

	// SMS (Twilio).
	TwilioAccountSID string  `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string  `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string  `mapstructure:"TWILIO_FROM_NUMBER"`
	SMSRatePerSec    float64 `mapstructure:"SMS_RATE_PER_SEC"`
	SMSBurst         int     `mapstructure:"SMS_BURST"`

	// Email: "smtp" or "resend".
	EmailProvider string `mapstructure:"EMAIL_PROVIDER"`
	EmailFrom     string `mapstructure:"EMAIL_FROM"`
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUsername  string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	ResendAPIKey  string `mapstructure:"RESEND_API_KEY"`
}

var AppConfig Config

// setDefaults registers every default on v. Split out so tests can load a
// config without touching the global viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "medminder")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("DISPATCH_SCHEDULE", "* * * * *")
	v.SetDefault("RUN_ON_START", true)
	v.SetDefault("MATCH_MODE", "exact")
	v.SetDefault("MAX_CATCHUP_MINUTES", 10)
	v.SetDefault("DEDUP_ENABLED", false)
	v.SetDefault("ROW_CONCURRENCY", 1)
	v.SetDefault("CHANNEL_TIMEOUT", "15s")

	v.SetDefault("DELIVERY_MODE", "inline")
	v.SetDefault("QUEUE_MAX_RETRY", 3)
	v.SetDefault("QUEUE_CONCURRENCY", 5)

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM_NUMBER", "")
	v.SetDefault("SMS_RATE_PER_SEC", 1.0)
	v.SetDefault("SMS_BURST", 5)

	v.SetDefault("EMAIL_PROVIDER", "smtp")
	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("RESEND_API_KEY", "")
}

// Load reads configuration from an optional config.yaml and the environment.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		log.Println("No config file found, using environment variables only")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig populates AppConfig from the global viper instance.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Validate rejects values the dispatcher cannot run with.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	switch c.MatchMode {
	case "exact", "window":
	default:
		return fmt.Errorf("invalid MATCH_MODE %q: want exact or window", c.MatchMode)
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	switch c.DeliveryMode {
	case "inline", "queue":
	default:
		return fmt.Errorf("invalid DELIVERY_MODE %q: want inline or queue", c.DeliveryMode)
	}
	switch c.EmailProvider {
	case "smtp", "resend":
	default:
		return fmt.Errorf("invalid EMAIL_PROVIDER %q: want smtp or resend", c.EmailProvider)
	}
	if c.RowConcurrency < 1 {
		return fmt.Errorf("ROW_CONCURRENCY must be >= 1, got %d", c.RowConcurrency)
	}
	if c.ChannelTimeout <= 0 {
		return fmt.Errorf("CHANNEL_TIMEOUT must be positive, got %s", c.ChannelTimeout)
	}
	return nil
}

// Location returns the configured dispatcher time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
