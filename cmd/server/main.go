package main

import (
	"altus-chat/contract"
	"altus-chat/infrastructure/websocket"
	"altus-chat/internal"
	"altus-chat/notify"
	"altus-chat/observability"
	"altus-chat/repositories"
	"altus-chat/repositories/sqlstore"
	"altus-chat/runtime"
	"altus-chat/runtime/workers"
	"altus-chat/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	defaultLimitMessages = 50
	shutdownTimeout      = 10 * time.Second
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// stores groups the repositories of the selected storage driver.
type stores struct {
	messages repositories.IMessageRepository
	groups   repositories.IGroupRepository
	follows  repositories.IFollowRepository
	badger   *badger.DB
	close    func()
}

// run wires every component and blocks until a signal or a server failure.
// Deferred cleanups run before the exit code is returned.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	if config.LimitMessages == nil {
		config.LimitMessages = lo.ToPtr(defaultLimitMessages)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage
	store, err := openStores(ctx, config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer store.close()

	index, err := repositories.OpenMessageIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open search index: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()

	moderator, err := runtime.LoadModerator(charReplacement, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderation init failed: %w", err)
	}

	// 3. Metrics, Supervision & Orchestration
	registerer := prometheus.NewRegistry()
	registerer.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registerer)

	notifier, err := newNotifier(config, logger)
	if err != nil {
		return exitConfig, err
	}

	sup := workers.NewSupervisor(logger, metrics, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, notifier, metrics,
		config.BufferSize, config.SinkTimeout, config.HeartbeatInterval)

	// 4. Services
	graph := services.NewFollowGraph(store.follows, config.RequireMutualFollow)
	wsServer := websocket.NewServer(logger, websocket.Services{
		Presence: services.NewPresenceService(logger, registry, orchestrator, graph),
		Messages: services.NewMessageService(logger, store.messages, orchestrator, graph, moderator,
			index, metrics, config.MaxContentLength),
		Typing:  services.NewTypingService(orchestrator, config.TypingTTL),
		Groups:  services.NewGroupService(logger, store.groups, orchestrator, moderator, metrics, config.MaxContentLength),
		Follows: graph,
	}, metrics, []byte(config.JWTSecret), websocket.Config{
		ConnectionBufferSize: config.ConnectionBufferSize,
		PingInterval:         config.PingInterval,
		PongWait:             config.PongWait,
		WriteWait:            config.WriteWait,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	mux.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		users, connections := registry.Stats()
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","online_users":%d,"connections":%d}`, users, connections)
	})
	if store.badger != nil && logger.Enabled(ctx, slog.LevelDebug) {
		mux.Handle("/debug/inspect", internal.InspectHandler(store.badger, logger, func() map[string]any {
			users, connections := registry.Stats()
			return map[string]any{"Online users": users, "Connections": connections}
		}))
		logger.Info("Debug Badger inspector available", "path", "/debug/inspect")
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		orchestrator.Start(ctx)
	}()

	// 6. HTTP Server
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		<-orchestratorDone
		return exitRuntime, err
	}

	// 8. Graceful Shutdown
	// Websocket sessions are hijacked connections, Shutdown does not wait for them.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	<-orchestratorDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func openStores(ctx context.Context, config internal.Config, logger *slog.Logger) (stores, error) {
	switch config.StorageDriver {
	case internal.SQLiteDriver:
		db, err := sqlstore.Open(config.SQLiteDSN, logger)
		if err != nil {
			return stores{}, fmt.Errorf("database opening failed: %w", err)
		}
		return stores{
			messages: sqlstore.NewMessageRepository(db, config.LimitMessages),
			groups:   sqlstore.NewGroupRepository(db, config.LimitMessages),
			follows:  sqlstore.NewFollowRepository(db),
			close: func() {
				logger.Info("Closing SQLite...")
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	default:
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return stores{}, fmt.Errorf("database opening failed: %w", err)
		}
		return stores{
			messages: repositories.NewMessageRepository(db, logger, config.LimitMessages),
			groups:   repositories.NewGroupRepository(db, logger, config.LimitMessages),
			follows:  repositories.NewFollowRepository(db),
			badger:   db,
			close: func() {
				// Releases the directory lock and flushes the memtables.
				logger.Info("Closing BadgerDB...")
				_ = db.Close()
			},
		}, nil
	}
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.INFO)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func newNotifier(config internal.Config, logger *slog.Logger) (contract.INotifier, error) {
	switch config.Notifier {
	case internal.WebhookNotifier:
		logger.Info("Push notifications sent to webhook", "url", config.NotifierWebhookURL)
		return notify.NewWebhookNotifier(config.NotifierWebhookURL, &http.Client{}, config.SinkTimeout*10), nil
	case internal.LogNotifier:
		return notify.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", config.Notifier)
	}
}
