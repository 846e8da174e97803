package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/application"
	"github.com/example/care-alarms/internal/catalog"
	"github.com/example/care-alarms/internal/config"
	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/doselog"
	httptransport "github.com/example/care-alarms/internal/http"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/permission"
	"github.com/example/care-alarms/internal/persistence"
	"github.com/example/care-alarms/internal/persistence/memory"
	"github.com/example/care-alarms/internal/persistence/redis"
	"github.com/example/care-alarms/internal/persistence/sqlite"
	"github.com/example/care-alarms/internal/push"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
	"github.com/example/care-alarms/internal/scheduler"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     persistence.Store
	scheduler *scheduler.Scheduler
	debugLog  *debuglog.Sink
	alarms    *alarm.Service

	medications *application.MedicationService
	visits      *application.VisitService
	vaccines    *application.VaccineService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deliverer, err := newDeliverer(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a, err := wire(cfg, logger, store, deliverer)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func wire(cfg config.Config, logger *slog.Logger, store persistence.Store, deliverer notifier.Deliverer) (*app, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	sched := scheduler.New(store, deliverer, scheduler.WithLocation(loc), scheduler.WithLogger(logger))
	sink := debuglog.New(store,
		debuglog.WithCapacity(cfg.DebugLogCapacity),
		debuglog.WithLocation(loc),
		debuglog.WithLogger(logger))
	gate := permission.New(sched, sink, logger)
	doses := doselog.New(store, time.Now, loc, logger)
	repo := catalog.New(store, logger)

	alarms, err := alarm.NewService(alarm.Dependencies{
		Notifier:    sched,
		Gate:        gate,
		Registry:    registry.New(store, logger),
		Doses:       doses,
		Catalog:     repo,
		Engine:      recurrence.NewEngine(loc),
		DebugLog:    sink,
		Logger:      logger,
		TestTimeout: cfg.TestNotificationTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		scheduler:   sched,
		debugLog:    sink,
		alarms:      alarms,
		medications: application.NewMedicationService(repo, alarms, doses, uuid.NewString, logger),
		visits:      application.NewVisitService(repo, alarms, uuid.NewString, logger),
		vaccines:    application.NewVaccineService(repo, alarms, logger),
	}, nil
}

func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Medications: httptransport.NewMedicationHandler(a.medications, a.logger),
		Visits:      httptransport.NewVisitHandler(a.visits, a.logger),
		Vaccines:    httptransport.NewVaccineHandler(a.vaccines, a.logger),
		Alarms:      httptransport.NewAlarmHandler(a.alarms, a.debugLog, a.logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(a.logger),
			httptransport.Recover(a.logger),
		},
	})
}

func (a *app) Close() error {
	return a.store.Close()
}

// openStore opens the configured store driver. The sqlite store is migrated
// before use.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.WarnContext(ctx, "using in-memory store, data is lost on exit")
		return memory.New(), nil
	case config.DriverRedis:
		return redis.Open(ctx, redis.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.DriverSQLite, "":
		storage, err := sqlite.OpenDSN(cfg.SQLiteDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		applied, err := storage.Migrate(ctx)
		if err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		if applied > 0 {
			logger.InfoContext(ctx, "applied migrations", "count", applied)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newDeliverer returns the FCM deliverer when credentials are configured and
// a log-only deliverer otherwise.
func newDeliverer(ctx context.Context, cfg config.Config, logger *slog.Logger) (notifier.Deliverer, error) {
	if cfg.FirebaseCredentials == "" {
		logger.InfoContext(ctx, "firebase credentials not set, notifications are only logged")
		return push.NewLogDeliverer(logger), nil
	}
	deliverer, err := push.NewFCMDeliverer(ctx, cfg.FirebaseCredentials, cfg.FCMTopic, logger)
	if err != nil {
		return nil, errors.Join(errors.New("initialise firebase messaging"), err)
	}
	return deliverer, nil
}
