package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/viant/afs"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/vsinha/stockpick/pkg/application/services/orchestration"
	"github.com/vsinha/stockpick/pkg/config"
	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
	"github.com/vsinha/stockpick/pkg/infrastructure/events"
	"github.com/vsinha/stockpick/pkg/infrastructure/lock"
	"github.com/vsinha/stockpick/pkg/infrastructure/notify"
	csvrepo "github.com/vsinha/stockpick/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/stockpick/pkg/infrastructure/repositories/mongodb"
	"github.com/vsinha/stockpick/pkg/infrastructure/repositories/mysql"
	"github.com/vsinha/stockpick/pkg/infrastructure/repositories/sheets"
	"github.com/vsinha/stockpick/pkg/infrastructure/repositories/workbook"
	"github.com/vsinha/stockpick/pkg/infrastructure/tracing"
	"github.com/vsinha/stockpick/pkg/logger"
)

// app holds the wired run pipeline and whatever must be closed after it
type app struct {
	fs             afs.Service
	orchestrator   *orchestration.PickingOrchestrator
	watchExtension string
	closers        []func(context.Context) error
	logger         *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (*app, error) {
	a := &app{fs: afs.New(), logger: baseLogger}
	if err := a.wire(ctx, cfg); err != nil {
		// release whatever was opened before the failure
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg *config.Config) error {
	if cfg.Tracing.Enabled {
		if err := tracing.Init("stockpick", version, os.Stderr); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	schema, err := config.LoadSchema(ctx, a.fs, cfg.Store.SchemaFile)
	if err != nil {
		return err
	}

	repo, err := a.openRepository(ctx, cfg, schema)
	if err != nil {
		return err
	}

	locker, err := a.openLocker(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := a.openEventStore(cfg)
	if err != nil {
		return err
	}

	a.orchestrator = orchestration.NewPickingOrchestrator(repo, schema,
		orchestration.WithLocker(locker),
		orchestration.WithEventStore(store),
		orchestration.WithLogger(logger.Named(a.logger, "picking")),
		orchestration.WithStrict(cfg.Run.Strict),
		orchestration.WithBackendName(cfg.Store.Backend),
	)
	return nil
}

func (a *app) openRepository(ctx context.Context, cfg *config.Config, schema entities.Schema) (repositories.DatasetRepository, error) {
	repoLogger := logger.Named(a.logger, "repo."+cfg.Store.Backend)

	switch cfg.Store.Backend {
	case config.BackendWorkbook:
		a.watchExtension = ".xlsx"
		return workbook.NewRepository(a.fs, schema, repoLogger), nil

	case config.BackendCSV:
		return csvrepo.NewRepository(a.fs, schema, repoLogger), nil

	case config.BackendSheets:
		return sheets.NewRepository(ctx, repoLogger, option.WithCredentialsFile(cfg.Sheets.CredentialsPath))

	case config.BackendMySQL:
		db, err := mysql.Open(ctx, cfg.MySQL.DSN, cfg.MySQL.MaxOpenConns, cfg.MySQL.MaxIdleConns, cfg.MySQL.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		repo := mysql.NewRepository(db, repoLogger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case config.BackendMongoDB:
		client, err := mongodb.Connect(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, err
		}
		repo := mongodb.NewRepository(client, cfg.MongoDB.DBName, repoLogger)
		a.closers = append(a.closers, repo.Close)
		return repo, nil

	default:
		return nil, fmt.Errorf("backend %q cannot be used from the command line", cfg.Store.Backend)
	}
}

func (a *app) openLocker(ctx context.Context, cfg *config.Config) (repositories.RunLocker, error) {
	if cfg.Redis.Addr == "" {
		// the watch loop and its runs share this process
		return lock.NewLocalLocker(), nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return lock.NewRedisLocker(client, cfg.Run.LockTTL, logger.Named(a.logger, "lock")), nil
}

func (a *app) openEventStore(cfg *config.Config) (events.EventStore, error) {
	store := events.NewInMemoryEventStore(logger.Named(a.logger, "events"))

	if cfg.AMQP.URL != "" {
		publisher, err := events.DialAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Named(a.logger, "events.amqp"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })
		if err := store.Subscribe(events.AllEventTypes(), publisher); err != nil {
			return nil, err
		}
	}

	if cfg.Webhook.URL != "" {
		notifier := notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout, logger.Named(a.logger, "notify.webhook"))
		if err := store.Subscribe(events.AllEventTypes(), notifier); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Close releases connections in reverse order of opening
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("failed to close connection", zap.Error(err))
		}
	}
	a.closers = nil
}
