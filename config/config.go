package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

type Config struct {
	Port     string `mapstructure:"PORT" validate:"required"`
	Env      string `mapstructure:"ENV" validate:"oneof=development production test"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Store    string `mapstructure:"STORE" validate:"oneof=postgres memory"`
	DBURL    string `mapstructure:"DB_URL" validate:"required_if=Store postgres"`

	DBMaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gte=1"`
	DBMaxIdleConns int `mapstructure:"DB_MAX_IDLE_CONNS" validate:"gte=0"`

	Timezone              string `mapstructure:"TIMEZONE"`
	BusinessOpen          string `mapstructure:"BUSINESS_OPEN" validate:"required"`
	BusinessClose         string `mapstructure:"BUSINESS_CLOSE" validate:"required"`
	SlotMinutes           int    `mapstructure:"SLOT_MINUTES" validate:"gte=5,lte=240"`
	SuggestionStepMinutes int    `mapstructure:"SUGGESTION_STEP_MINUTES" validate:"gte=5,lte=240"`
	BufferMinutes         int    `mapstructure:"BUFFER_MINUTES" validate:"gte=0,lte=120"`
	WaitlistTTLHours      int    `mapstructure:"WAITLIST_TTL_HOURS" validate:"gte=1"`

	ReminderCron       string `mapstructure:"REMINDER_CRON"`
	WaitlistExpiryCron string `mapstructure:"WAITLIST_EXPIRY_CRON"`
	NoShowCron         string `mapstructure:"NO_SHOW_CRON"`
	FollowUpCron       string `mapstructure:"FOLLOW_UP_CRON"`

	JWTSecret     string   `mapstructure:"JWT_SECRET" validate:"required"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	SlowRequestMS int      `mapstructure:"SLOW_REQUEST_MS" validate:"gte=0"`

	RedisURL           string `mapstructure:"REDIS_URL"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"gte=0"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`

	TwilioAccountSID     string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber    string `mapstructure:"TWILIO_PHONE_NUMBER"`
	TwilioWhatsAppNumber string `mapstructure:"TWILIO_WHATSAPP_NUMBER"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	OTelEnabled      bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint     string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplingRate float64 `mapstructure:"OTEL_SAMPLING_RATIO" validate:"gte=0,lte=1"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORE", "DB_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"TIMEZONE", "BUSINESS_OPEN", "BUSINESS_CLOSE", "SLOT_MINUTES", "SUGGESTION_STEP_MINUTES",
	"BUFFER_MINUTES", "WAITLIST_TTL_HOURS",
	"REMINDER_CRON", "WAITLIST_EXPIRY_CRON", "NO_SHOW_CRON", "FOLLOW_UP_CRON",
	"JWT_SECRET", "CORS_ORIGINS", "SLOW_REQUEST_MS",
	"REDIS_URL", "RATE_LIMIT_PER_MINUTE", "KAFKA_BROKERS",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER", "TWILIO_WHATSAPP_NUMBER",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO",
}

// Load reads .env (when present) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", "postgres")
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("BUSINESS_OPEN", "09:00")
	v.SetDefault("BUSINESS_CLOSE", "18:00")
	v.SetDefault("SLOT_MINUTES", 30)
	v.SetDefault("SUGGESTION_STEP_MINUTES", 30)
	v.SetDefault("BUFFER_MINUTES", 0)
	v.SetDefault("WAITLIST_TTL_HOURS", 168)
	v.SetDefault("REMINDER_CRON", "*/5 * * * *")
	v.SetDefault("WAITLIST_EXPIRY_CRON", "*/15 * * * *")
	v.SetDefault("NO_SHOW_CRON", "0 23 * * *")
	v.SetDefault("FOLLOW_UP_CRON", "0 18 * * *")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SLOW_REQUEST_MS", 200)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("SMTP_PORT", "25")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the values that must parse.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Settings builds the scheduling defaults used when a branch has no hours of
// its own.
func (c *Config) Settings() (scheduling.Settings, error) {
	open, err := models.ParseClock(c.BusinessOpen)
	if err != nil {
		return scheduling.Settings{}, fmt.Errorf("BUSINESS_OPEN: %w", err)
	}
	closing, err := models.ParseClock(c.BusinessClose)
	if err != nil {
		return scheduling.Settings{}, fmt.Errorf("BUSINESS_CLOSE: %w", err)
	}
	w := scheduling.Window{Open: open, Close: closing}
	if err := w.Validate(); err != nil {
		return scheduling.Settings{}, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return scheduling.Settings{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	return scheduling.Settings{
		Window:                w,
		SlotMinutes:           c.SlotMinutes,
		SuggestionStepMinutes: c.SuggestionStepMinutes,
		BufferMinutes:         c.BufferMinutes,
		WaitlistTTL:           time.Duration(c.WaitlistTTLHours) * time.Hour,
		Location:              loc,
	}, nil
}

func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokers) != ""
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

var errNoRedis = errors.New("REDIS_URL is not set")

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
