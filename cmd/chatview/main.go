package main

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/internal"
	"chat-timeline/runtime"
	"chat-timeline/services"
	"chat-timeline/sink"
	"chat-timeline/store"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatview terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, tails the configured chat to the console,
// and centralizes error reporting so every defer (database close, view
// teardown) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 4. Store, views, service
	clock := clockwork.NewRealClock()
	messageStore := store.NewMessageStore(db, logger)
	views := runtime.NewViewManager(logger, messageStore, clock, runtime.ViewConfig{
		TailLimit:         config.TailLimit,
		TailWindow:        config.TailWindow,
		LastMessageWindow: config.LastMessageWindow,
		HistoryRefresh:    config.HistoryRefresh,
		BufferSize:        config.BufferSize,
	})
	defer views.CloseAll()

	service := services.NewChatService(logger, messageStore, views, clock)

	chatID := chat.ChatID(config.ChatID)
	if chatID == "" {
		chatID = chat.ChatID(uuid.NewString())
		logger.Info("No CHAT_ID configured, using a fresh chat", "chat", chatID)
	}

	// 5. Optional demo traffic so the tail has something to show
	if config.Demo {
		if err := seedDemo(ctx, messageStore, clock, chatID); err != nil {
			return exitRuntime, fmt.Errorf("demo seed failed: %w", err)
		}
		go demoTraffic(ctx, logger, service, chatID)
	}

	// 6. Open the view and render every converged timeline
	view := service.OpenTimeline(ctx, chatID, sink.NewLogSink(logger))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			view.Close()
			logger.Info("Program stopped cleanly")
			return exitOK, nil
		case update, ok := <-view.Updates():
			if !ok {
				return exitOK, nil
			}
			if update.Err != nil {
				view.Close()
				return exitRuntime, fmt.Errorf("timeline pipeline error: %w", update.Err)
			}
			render(os.Stdout, update.Timeline)
		}
	}
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.ERROR)
	}

	return options
}

// seedDemo backdates a small two-day conversation straight through the
// store, bypassing the service so creation times can sit in the past.
func seedDemo(ctx context.Context, messageStore contract.MessageStore, clock clockwork.Clock, chatID chat.ChatID) error {
	now := clock.Now().UTC()
	seed := []chat.Message{
		{SenderID: "alice", Content: "Are you around tomorrow?", CreatedAt: now.Add(-48 * time.Hour)},
		{SenderID: "bob", Content: "Yes, after lunch", CreatedAt: now.Add(-48*time.Hour + time.Minute)},
		{SenderID: "alice", Content: "Perfect, see you then", CreatedAt: now.Add(-48*time.Hour + 2*time.Minute)},
		{SenderID: "bob", Content: "On my way", CreatedAt: now.Add(-time.Minute)},
		{SenderID: "alice", Content: "Table at the back", CreatedAt: now},
	}
	for _, message := range seed {
		message.ID = uuid.New()
		message.ChatID = chatID
		message.Type = chat.TypeText
		if err := messageStore.Append(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// demoTraffic posts a message every few seconds so the live tail visibly
// updates while the program runs.
func demoTraffic(ctx context.Context, logger *slog.Logger, service services.IChatService, chatID chat.ChatID) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count++
			_, err := service.PostMessage(ctx, chat.PostMessageCommand{
				Chat:    chatID,
				Sender:  "bot",
				Type:    chat.TypeText,
				Content: fmt.Sprintf("demo message #%d", count),
			})
			if err != nil {
				logger.Warn("Demo post failed", "error", err)
			}
		}
	}
}
