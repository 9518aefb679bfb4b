package cmd

import (
	"context"
	"fmt"
	"time"

	"wagerbot/bot"
	"wagerbot/config"
	"wagerbot/database"
	"wagerbot/events"
	"wagerbot/infrastructure"
	"wagerbot/observability"
	"wagerbot/repository"
	"wagerbot/service"
	"wagerbot/session"
	"wagerbot/worker"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting wagerbot...")

	tuning, err := config.LoadGameTuning(cfg.GamesConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load game tuning: %w", err)
	}

	log.Info("Applying database migrations...")
	if err := database.RunMigrationsWithURL(cfg.DatabaseConnectionURL()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseConnectionURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	escrowService := service.NewEscrowService(uowFactory)
	transferService := service.NewTransferService(uowFactory)
	bankService := service.NewBankService(uowFactory, tuning.Bank)
	accrualService := service.NewAccrualService(uowFactory, tuning.Bank)

	// Escrows still held belong to sessions that died with the last process.
	recovered, err := escrowService.RecoverOrphaned(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover orphaned escrows: %w", err)
	}
	if recovered > 0 {
		log.WithField("escrows", recovered).Warn("Refunded escrows orphaned by the previous run")
	}

	metrics, stopMetrics, err := startMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopMetrics()

	sessions := session.NewManager(escrowService, session.Config{
		Timeout:  cfg.SessionTimeout,
		Recorder: metrics,
	})
	if err := metrics.ObserveActiveSessions(sessions.ActiveCount); err != nil {
		return fmt.Errorf("failed to register session gauge: %w", err)
	}
	metrics.SubscribeToBus(eventBus)

	adminService := service.NewAdminService(uowFactory, cfg.IsAdmin, sessions)

	// Connect before the worker starts so its events are forwarded
	if cfg.NATSEnabled {
		natsClient, err := connectNATS(ctx, cfg, eventBus)
		if err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.Errorf("Error closing NATS connection: %v", err)
			}
		}()
	}

	accrualWorker := worker.NewAccrualWorker(accrualService, cfg.AccrualInterval, metrics)
	stopAccrual := accrualWorker.Start(ctx)
	defer stopAccrual()

	discordBot, err := bot.New(bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}, bot.Services{
		User:     userService,
		Transfer: transferService,
		Bank:     bankService,
		Admin:    adminService,
	}, sessions, tuning)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	log.Info("Bot is running")
	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	closed := sessions.Shutdown(shutdownCtx)
	log.WithField("sessions", closed).Info("Live sessions closed")

	// Deferred teardown stops the worker, then NATS, then metrics
	log.Info("Stopping background services")
	return nil
}

// startMetrics initializes the meter provider. The returned stop flushes it.
func startMetrics(ctx context.Context, cfg *config.Config) (*observability.MetricsProvider, func(), error) {
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error shutting down metrics: %v", err)
		}
	}
	return metrics, stop, nil
}

// connectNATS forwards committed domain events to JetStream
func connectNATS(ctx context.Context, cfg *config.Config, bus *events.Bus) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers, cfg.OTelServiceName)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.EconomyStream, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure NATS stream: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(client, mapper, cfg.OTelServiceName)
	publisher.Forward(bus, 5*time.Second)
	log.WithField("servers", cfg.NATSServers).Info("Forwarding events to NATS")
	return client, nil
}
