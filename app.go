package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"salonpro-scheduler/config"
	"salonpro-scheduler/events"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/services"
	"salonpro-scheduler/utils"
)

// app holds the wired components shared by the serve and sweep commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	db            *gorm.DB
	redis         *redis.Client
	store         repository.Store
	catalog       repository.CatalogRepository
	directory     repository.DirectoryRepository
	notifications repository.NotificationRepository
	publisher     events.Publisher

	scheduling *services.SchedulingService
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	var commission services.CommissionTrigger
	switch cfg.Store {
	case "memory":
		mem := repository.NewMemory()
		a.store, a.catalog, a.directory, a.notifications = mem, mem, mem, mem
		logger.Warn().Msg("using in-memory store, data is lost on exit")
	default:
		db, err := config.ConnectDB(cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.store = repository.NewGormStore(db)
		a.catalog = repository.NewGormCatalog(db)
		a.directory = repository.NewGormDirectory(db)
		a.notifications = repository.NewGormNotifications(db)
		commission = services.NewInvoiceDrafter(db)
		logger.Info().Msg("connected to database")
	}

	a.publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		a.publisher = events.NewKafkaPublisher(events.SplitBrokers(cfg.KafkaBrokers))
		logger.Info().Str("brokers", cfg.KafkaBrokers).Msg("publishing lifecycle events to kafka")
	}

	if cfg.RedisURL != "" {
		rdb, err := config.ConnectRedis(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		} else {
			a.redis = rdb
		}
	}

	var senders []services.Sender
	if cfg.TwilioEnabled() {
		senders = append(senders, services.NewTwilioSender(services.TwilioConfig{
			AccountSID:     cfg.TwilioAccountSID,
			AuthToken:      cfg.TwilioAuthToken,
			PhoneNumber:    cfg.TwilioPhoneNumber,
			WhatsAppNumber: cfg.TwilioWhatsAppNumber,
		}))
	}
	if cfg.SMTPEnabled() {
		senders = append(senders, services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	if len(senders) == 0 {
		logger.Warn().Msg("no notification channel configured, messages are only logged")
	}
	notifier := services.NewNotificationService(a.directory, a.notifications, logger, senders...)

	a.scheduling = services.NewSchedulingService(services.Dependencies{
		Store:      a.store,
		Catalog:    a.catalog,
		Directory:  a.directory,
		Notifier:   notifier,
		Commission: commission,
		Events:     a.publisher,
		Settings:   settings,
		Logger:     logger,
	})
	return a, nil
}

func (a *app) rateLimiter() *utils.RedisRateLimiter {
	if a.redis == nil || a.cfg.RateLimitPerMinute == 0 {
		return nil
	}
	return utils.NewRedisRateLimiter(a.redis, a.cfg.RateLimitPerMinute, time.Minute)
}

func (a *app) sweepSchedule() services.SweepSchedule {
	return services.SweepSchedule{
		Reminders:      a.cfg.ReminderCron,
		WaitlistExpiry: a.cfg.WaitlistExpiryCron,
		NoShows:        a.cfg.NoShowCron,
		FollowUps:      a.cfg.FollowUpCron,
	}
}

func (a *app) Close() error {
	var firstErr error
	if err := a.publisher.Close(); err != nil {
		firstErr = fmt.Errorf("close publisher: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}
	return firstErr
}
