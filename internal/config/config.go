package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config holds every runtime setting of the bot
type Config struct {
	Port        string `env:"PORT" default:"8080"`
	Environment string `env:"ENVIRONMENT" default:"production"`

	// Backend
	APIBaseURL string        `env:"API_BASE_URL" default:"https://election.nerotechbenin.com/api"`
	APITimeout time.Duration `env:"API_TIMEOUT" default:"15s"`

	// Twilio WhatsApp transport
	TwilioAccountSID         string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken          string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom       string `env:"TWILIO_WHATSAPP_FROM"` // Format: "whatsapp:+14155238886"
	PublicBaseURL            string `env:"PUBLIC_BASE_URL"`      // used to rebuild the signed webhook URL
	DisableWebhookValidation bool   `env:"DISABLE_WEBHOOK_VALIDATION" default:"false"`

	// Storage
	UseMemoryStore bool   `env:"USE_MEMORY_STORE" default:"true"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`

	// Admission and pacing
	ReplyDelay        time.Duration `env:"REPLY_DELAY" default:"5s"`
	SendRatePerSecond float64       `env:"SEND_RATE_PER_SEC" default:"5"`
	WorkerIdleTimeout time.Duration `env:"WORKER_IDLE_TIMEOUT" default:"2m"`

	// Sessions and tokens
	SessionTTL      time.Duration `env:"SESSION_TTL" default:"30m"`
	TokenCacheSize  int           `env:"TOKEN_CACHE_SIZE" default:"10000"`
	TokenDefaultTTL time.Duration `env:"TOKEN_DEFAULT_TTL" default:"12h"`

	// Route locales results to centre/poste instead of village/quartier
	LocalesPosteLevel bool `env:"LOCALES_POSTE_LEVEL" default:"false"`
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required combinations
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL is invalid: %w", err)
	}
	if !c.UseMemoryStore && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when USE_MEMORY_STORE is false")
	}
	if c.ReplyDelay < 0 {
		return errors.New("REPLY_DELAY must not be negative")
	}
	if c.SendRatePerSecond <= 0 {
		return errors.New("SEND_RATE_PER_SEC must be positive")
	}
	if c.TokenCacheSize <= 0 {
		return errors.New("TOKEN_CACHE_SIZE must be positive")
	}
	if !c.IsDevelopment() && !c.DisableWebhookValidation && c.TwilioAuthToken == "" {
		return errors.New("TWILIO_AUTH_TOKEN is required to validate webhooks")
	}
	return nil
}

// IsDevelopment reports whether dev-only routes and relaxed checks apply
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TwilioConfigured reports whether outbound WhatsApp delivery is possible
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}
