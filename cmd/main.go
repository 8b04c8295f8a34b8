package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"market-chat/infrastructure/storage"
	"market-chat/infrastructure/transport"
	"market-chat/internal"
	"market-chat/services"
	"market-chat/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the session lifecycle, and
// centralizes error reporting so that 'defer' statements execute before
// the program exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(config.LogLevel),
	}))

	// 2. Delegates
	natsTransport := transport.NewNatsTransport(
		log, config.TransportURL, config.NetworkID, config.LocalUserID, config.EventBufferSize)
	blobStore := storage.NewBlobStore(log, config.BlobFilepath)

	// 3. Session
	session := services.NewChatSession(log, config, natsTransport, blobStore, sink.LogNotifier{Log: log})

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Init(ctx); err != nil {
		return fmt.Errorf("session failed to start: %w", err)
	}

	// 5. Surface notifications on the log until shutdown
	notifications := sink.NewChannelSink(config.EventBufferSize)
	if err := session.Subscribe(notifications); err != nil {
		return err
	}
	go func() {
		for n := range notifications.Notifications {
			log.Info("Session notification", "type", n.Type, "room", n.RoomID)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	if err := session.Disconnect(); err != nil {
		return fmt.Errorf("disconnect error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
