package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dm-lab/auth"
	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/moderation"
	"dm-lab/observability"
	"dm-lab/projection"
	"dm-lab/repositories"
	"dm-lab/runtime"
	"dm-lab/runtime/workers"
	"dm-lab/services"
	"dm-lab/transport"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Services
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	otpRepository := repositories.NewOtpRepository(db, config.OtpRetention)

	censor, err := buildModerator(config)
	if err != nil {
		return err
	}

	messageService := services.NewMessageService(messageRepository, censor, log)

	var mailer contract.Mailer = auth.LogMailer{Log: log}
	if config.SMTPHost != "" {
		mailer = auth.NewSMTPMailer(config.SMTPHost, config.SMTPPort,
			config.SMTPFrom, config.SMTPUsername, config.SMTPPassword)
	}
	authService := services.NewAuthService(otpRepository, userRepository,
		mailer, log, config.AuthTokenDuration, []byte(config.TokenSecret))

	// 4. Hub, Broadcaster & Presence
	hub := transport.NewHub(log, config.ConnectionBufferSize)
	broadcaster := runtime.NewBroadcaster(log, hub, config.BufferSize)
	presence := runtime.NewPresenceRegistry(log, func(change domain.PresenceChange) {
		broadcaster.Publish(event.PresenceChanged{Change: change})
	})

	// 5. Supervision & Orchestration
	tracker := observability.NewHealthTracker()
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, supervisor, messageService,
		broadcaster, presence, tracker, config.NumberOfWorkers, config.BufferSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)

	// 6. HTTP & Websocket surface
	conversations := projection.NewConversationIndex(messageRepository,
		userRepository, presence)
	gateway := transport.NewWsGateway(log, hub, orchestrator)
	router := transport.NewRouter(log, messageService, authService,
		conversations, tracker)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	router.Register(app, gateway)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	_ = app.ShutdownWithTimeout(5 * time.Second)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// buildModerator loads the censored word list when one is configured.
// Without a word list messages pass through unmasked.
func buildModerator(config Config) (*moderation.Moderator, error) {
	if config.ModerationWordsFile == "" {
		return nil, nil
	}
	mask, err := characterRune(config.ModerationCharReplacement)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(config.ModerationWordsFile)
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer file.Close()

	words, err := moderation.LoadWords(file)
	if err != nil {
		return nil, err
	}
	return moderation.NewModerator(words, mask)
}
