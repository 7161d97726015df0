// Package main implements the entry point for the taskflow coordinator,
// which generates recurring tasks, schedules and deduplicates reminders,
// and fans task lifecycle events out to live observers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/taskflow/internal/api"
	"github.com/phrazzld/taskflow/internal/audit"
	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/fanout"
	"github.com/phrazzld/taskflow/internal/index"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/platform/postgres"
	redisplatform "github.com/phrazzld/taskflow/internal/platform/redis"
	"github.com/phrazzld/taskflow/internal/recurrence"
	"github.com/phrazzld/taskflow/internal/reminder"
	"github.com/phrazzld/taskflow/internal/scheduler"
	"github.com/phrazzld/taskflow/internal/store"
	"github.com/phrazzld/taskflow/internal/store/memstore"
	"github.com/phrazzld/taskflow/internal/taskservice"
	"github.com/phrazzld/taskflow/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start coordinator: %v", err)
	}
}

// app holds the wired application components.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	bus     events.Bus
	scanner *scheduler.Scanner
	router  http.Handler
	cleanup []func()
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(a.cleanup) - 1; i >= 0; i-- {
			a.cleanup[i]()
		}
	}()

	if err := a.scanner.Start(ctx, a.cfg.Scheduler.CronSpec); err != nil {
		return fmt.Errorf("failed to start reminder scan: %w", err)
	}
	defer a.scanner.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "port", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

// initializeApp loads configuration and wires all application components:
// store backend, bus, consumers, scheduler, and the HTTP surface.
func initializeApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_backend", cfg.Store.Backend)

	a := &app{cfg: cfg, logger: appLogger}

	entityStore, err := a.buildEntityStore(ctx)
	if err != nil {
		return nil, err
	}

	busClient, err := redisplatform.NewClient(redisplatform.Options{
		Addr:     cfg.Bus.RedisAddr,
		Password: cfg.Bus.RedisPassword,
		DB:       cfg.Bus.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message bus: %w", err)
	}
	a.cleanup = append(a.cleanup, func() { _ = busClient.Close() })
	a.bus = redisplatform.NewBus(busClient, appLogger)

	precision, err := domain.ParseKeyPrecision(cfg.Recurrence.ProcessingKeyPrecision)
	if err != nil {
		return nil, err
	}

	tasks := taskservice.NewHTTPClient(cfg.TaskService.BaseURL,
		time.Duration(cfg.TaskService.TimeoutSeconds)*time.Second)
	trail := audit.NewTrail(a.bus, cfg.Bus.TaskAuditTopic, appLogger)

	generator := recurrence.NewGenerator(entityStore, tasks, a.bus, trail,
		cfg.Bus.TaskRecurrenceTopic, precision, appLogger)

	reminders := reminder.NewService(entityStore, index.NewManager(entityStore, appLogger), appLogger)
	dispatcher := notify.NewDispatcher(appLogger)
	dueHandler := reminder.NewDueHandler(reminders, dispatcher, nil, appLogger)
	lifecycle := reminder.NewLifecycleHandler(reminders, appLogger)

	registry := fanout.NewRegistry(appLogger)
	broadcaster := fanout.NewBroadcaster(registry, appLogger)

	subscriptions := map[string]events.HandlerFunc{
		cfg.Bus.TaskCompletedTopic: generator.HandleEvent,
		cfg.Bus.TaskRemindersTopic: dueHandler.HandleEvent,
		cfg.Bus.TaskDeletedTopic:   lifecycle.HandleTaskDeleted,
		cfg.Bus.TaskUpdatesTopic: func(ctx context.Context, payload []byte) {
			lifecycle.HandleTaskUpdated(ctx, payload)
			broadcaster.HandleEvent(ctx, payload)
		},
	}
	for topic, handler := range subscriptions {
		if err := a.bus.Subscribe(ctx, topic, handler); err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	a.scanner = scheduler.NewScanner(tasks, a.bus, cfg.Bus.TaskRemindersTopic,
		time.Duration(cfg.Scheduler.DueWindowMinutes)*time.Minute, appLogger)

	handlers := api.NewHandlers(generator, reminders, broadcaster,
		ws.NewHandler(registry, appLogger), appLogger)
	a.router = api.NewRouter(handlers)

	return a, nil
}

// buildEntityStore selects the configured store backend.
func (a *app) buildEntityStore(ctx context.Context) (store.EntityStore, error) {
	switch a.cfg.Store.Backend {
	case "redis":
		client, err := redisplatform.NewClient(redisplatform.Options{
			Addr:     a.cfg.Store.RedisAddr,
			Password: a.cfg.Store.RedisPassword,
			DB:       a.cfg.Store.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis store: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { _ = client.Close() })
		return redisplatform.NewEntityStore(client), nil

	case "postgres":
		db, err := postgres.Open(ctx, a.cfg.Store.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres store: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { _ = db.Close() })
		if err := postgres.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewEntityStore(db), nil

	case "memory":
		a.logger.Warn("using in-memory store, state will not survive restarts")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
}
