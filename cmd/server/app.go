package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/altscribe/altscribe-api/internal/api"
	"github.com/altscribe/altscribe-api/internal/config"
	"github.com/altscribe/altscribe-api/internal/events"
	"github.com/altscribe/altscribe-api/internal/notify"
	"github.com/altscribe/altscribe-api/internal/platform/docstore"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/platform/redis"
	"github.com/altscribe/altscribe-api/internal/providers"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/auth"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/altscribe/altscribe-api/internal/task"
	"golang.org/x/crypto/bcrypt"
)

// Queue implementations accepted by task.queue.
const (
	queueMemory = "memory"
	queueRedis  = "redis"
)

// queueKey is the Redis list shared by API and worker processes.
const queueKey = "altscribe:jobs"

// purgeInterval is how often expired documents are removed from the
// document store. Redis expires keys on its own.
const purgeInterval = time.Hour

// application holds the wired dependencies of one process and releases
// them on Close.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	backend store.Backend
	redis   *redis.Backend
	queue   task.Queue
	runner  *task.Runner
	handler http.Handler
}

// newApplication opens storage and wires stores, services, the job runner
// and the HTTP router. Workers are not started until Serve or RunWorkers.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}
	telemetry := observability.Global()

	if err := app.openStorage(ctx); err != nil {
		return nil, err
	}

	cipher, err := secrets.NewCipher(cfg.Auth.SessionSecret)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create key cipher: %w", err)
	}
	keys := secrets.NewManager(app.backend, cipher, secrets.EnvFallbacks(cfg), logger)

	sessions, err := auth.NewSessionManager(app.backend, auth.SessionConfig{
		Secret:     cfg.Auth.SessionSecret,
		TTL:        time.Duration(cfg.Auth.SessionTTLSeconds) * time.Second,
		Production: cfg.IsProduction(),
	}, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	jobs := store.NewJobStore(app.backend, logger)
	proposals := store.NewProposalStore(app.backend, logger)
	settings := service.NewSettingsService(app.backend, logger)
	users := service.NewUserService(store.NewUserStore(app.backend, logger), settings,
		auth.NewBcryptHasher(bcrypt.DefaultCost), logger)
	registry := providers.NewRegistry(keys, cfg.Webflow, cfg.LLM, logger, telemetry)

	app.queue, err = app.newQueue()
	if err != nil {
		app.Close()
		return nil, err
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(notify.NewHandler(settings, nil, logger))

	processor := task.NewAltTextProcessor(jobs, proposals, registry, telemetry, logger)
	app.runner = task.NewRunner(app.queue, jobs, proposals, processor, emitter, task.RunnerConfig{
		WorkerCount:           cfg.Task.WorkerCount,
		JobTimeout:            time.Duration(cfg.Task.JobTimeoutMinutes) * time.Minute,
		StuckJobAge:           time.Duration(cfg.Task.StuckJobAgeMinutes) * time.Minute,
		StuckJobCheckInterval: time.Duration(cfg.Task.StuckJobCheckIntervalMinutes) * time.Minute,
	}, logger)

	jobService := service.NewJobService(jobs, proposals, app.runner, keys, registry, logger)

	app.handler = api.NewRouter(api.RouterConfig{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		Sessions:    sessions,
		Auth:        api.NewAuthHandler(users, sessions),
		Items:       api.NewItemsHandler(registry, keys),
		Jobs:        api.NewJobHandler(jobService),
		Admin:       api.NewAdminHandler(keys, users, settings),
		Health:      api.NewHealthHandler(app.backend.Name(), version),
	})

	logger.Info("application initialized",
		"storage", app.backend.Name(),
		"queue", cfg.Task.Queue,
		"llm_provider", cfg.LLM.Provider)
	return app, nil
}

// openStorage selects the document backend: the database when configured
// and reachable, Redis otherwise. Redis is opened as well when the queue
// needs it.
func (app *application) openStorage(ctx context.Context) error {
	var durable store.Opener
	if url := app.config.Storage.DatabaseURL; url != "" {
		durable = func(ctx context.Context) (store.Backend, error) {
			s, err := docstore.Open(ctx, url, app.logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	ephemeral := func(ctx context.Context) (store.Backend, error) {
		return app.openRedis(ctx)
	}

	backend, err := store.Select(ctx, durable, ephemeral, app.logger)
	if err != nil {
		return err
	}
	app.backend = backend

	if app.config.Task.Queue == queueRedis {
		if _, err := app.openRedis(ctx); err != nil {
			app.Close()
			return fmt.Errorf("failed to open redis for the job queue: %w", err)
		}
	}
	return nil
}

func (app *application) openRedis(ctx context.Context) (*redis.Backend, error) {
	if app.redis != nil {
		return app.redis, nil
	}
	b, err := redis.Open(ctx, app.config.Storage.RedisURL, app.logger)
	if err != nil {
		return nil, err
	}
	app.redis = b
	return b, nil
}

func (app *application) newQueue() (task.Queue, error) {
	switch app.config.Task.Queue {
	case queueRedis:
		return redis.NewQueue(app.redis.Client(), queueKey, app.logger), nil
	case queueMemory:
		return task.NewMemoryQueue(app.config.Task.QueueSize, app.logger), nil
	}
	return nil, fmt.Errorf("unknown task queue %q", app.config.Task.Queue)
}

// RunWorkers runs the job runner until ctx is done.
func (app *application) RunWorkers(ctx context.Context) error {
	if err := app.runner.Start(); err != nil {
		return err
	}
	go app.purgeExpired(ctx)

	<-ctx.Done()
	app.logger.Info("stopping workers")
	app.runner.Stop()
	return nil
}

// Close stops the workers and releases storage connections. It is safe to
// call on a partially initialized application.
func (app *application) Close() {
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.queue != nil {
		app.queue.Close()
	}

	var errs []error
	if app.backend != nil && app.backend != store.Backend(app.redis) {
		errs = append(errs, app.backend.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("failed to close storage", "error", err)
	}
}

// purgeExpired periodically deletes expired documents when the backend is
// the document store.
func (app *application) purgeExpired(ctx context.Context) {
	ds, ok := app.backend.(*docstore.Store)
	if !ok {
		return
	}

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ds.PurgeExpired(ctx)
			if err != nil {
				app.logger.Error("failed to purge expired documents", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info("purged expired documents", "count", n)
			}
		}
	}
}
