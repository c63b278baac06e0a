package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"remindd/internal/api"
	"remindd/internal/config"
	"remindd/internal/notify"
	"remindd/internal/reminder"
	"remindd/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate required config
	if cfg.BackendURL == "" {
		log.Fatal("BACKEND_URL is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick the state store: Postgres when configured, file-backed
	// otherwise
	var st store.Store
	if cfg.DatabaseURI != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Using Postgres state store")
		st = pg
	} else {
		fs, err := store.NewFile(cfg.StateDir)
		if err != nil {
			log.Fatalf("Failed to open state directory: %v", err)
		}
		log.Printf("Using file state store in %s", cfg.StateDir)
		st = fs
	}

	// Create backend client
	backend, err := api.New(cfg.BackendURL, cfg.APIToken)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	// Wire up notification channels. Desktop and Telegram are optional;
	// the in-app store is always available through the backend.
	inApp := notify.NewInApp(backend)

	var desktop notify.Sink
	if d, err := notify.NewDesktop(); err != nil {
		log.Printf("Desktop notifications unavailable: %v", err)
	} else {
		desktop = d
		defer d.Close()
	}

	var telegram notify.Sink
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		t, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram notifications unavailable: %v", err)
		} else {
			telegram = t
			log.Println("Telegram notifications enabled")
		}
	}

	sound := notify.NewSound(cfg.SoundCommand)
	dispatcher := reminder.NewDispatcher(inApp, desktop, telegram, sound)

	svc := reminder.New(backend, st, dispatcher, reminder.Options{
		EmailDisabled: cfg.EmailDisabled,
		Interval:      cfg.PollInterval,
	})

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	svc.Start(ctx)
}
