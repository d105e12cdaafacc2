package config

import (
	"testing"
	"time"

	"salonpro-scheduler/models"
)

func validConfig() *Config {
	return &Config{
		Port:                  "8080",
		Env:                   "test",
		Store:                 "memory",
		DBMaxOpenConns:        10,
		Timezone:              "UTC",
		BusinessOpen:          "09:00",
		BusinessClose:         "18:00",
		SlotMinutes:           30,
		SuggestionStepMinutes: 15,
		WaitlistTTLHours:      48,
		JWTSecret:             "secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE", "memory")
	t.Setenv("DB_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotMinutes != 30 || cfg.WaitlistTTLHours != 168 {
		t.Errorf("unexpected scheduling defaults %d %d", cfg.SlotMinutes, cfg.WaitlistTTLHours)
	}
	if cfg.ReminderCron != "*/5 * * * *" {
		t.Errorf("unexpected reminder cron %q", cfg.ReminderCron)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_RequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE", "postgres")
	t.Setenv("DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DB_URL is missing")
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE", "memory")
	t.Setenv("SLOT_MINUTES", "15")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SlotMinutes != 15 {
		t.Errorf("expected 15 minute slots, got %d", cfg.SlotMinutes)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if !cfg.KafkaEnabled() {
		t.Error("expected kafka to be enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"unknown store", func(c *Config) { c.Store = "mongo" }},
		{"unknown env", func(c *Config) { c.Env = "staging" }},
		{"tiny slots", func(c *Config) { c.SlotMinutes = 1 }},
		{"bad open time", func(c *Config) { c.BusinessOpen = "9am" }},
		{"closes before opening", func(c *Config) { c.BusinessClose = "08:00" }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"sampling ratio", func(c *Config) { c.OTelSamplingRate = 2 }},
	}
	for _, tt := range tests {
		c := validConfig()
		tt.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Settings(t *testing.T) {
	c := validConfig()
	c.Timezone = "UTC"
	c.BufferMinutes = 10

	s, err := c.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Window.Open != models.NewClock(9, 0) || s.Window.Close != models.NewClock(18, 0) {
		t.Errorf("unexpected window %s-%s", s.Window.Open, s.Window.Close)
	}
	if s.WaitlistTTL != 48*time.Hour || s.BufferMinutes != 10 || s.SuggestionStepMinutes != 15 {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Location != time.UTC {
		t.Errorf("unexpected location %s", s.Location)
	}
}

func TestConfig_Flags(t *testing.T) {
	c := validConfig()
	if !(&Config{Env: "development"}).IsDev() || c.IsDev() {
		t.Error("IsDev should only be true for development")
	}
	if c.TwilioEnabled() || c.SMTPEnabled() || c.KafkaEnabled() {
		t.Error("no integration should be enabled by default")
	}
	c.TwilioAccountSID, c.TwilioAuthToken = "AC123", "token"
	c.SMTPHost = "mailpit"
	if !c.TwilioEnabled() || !c.SMTPEnabled() {
		t.Error("expected twilio and smtp to be enabled")
	}
}
