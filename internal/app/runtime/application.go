// Package runtime wires configuration, stores and the HTTP server into a
// runnable application.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/drnkly/vendor-service/internal/app"
	"github.com/drnkly/vendor-service/internal/app/httpapi"
	"github.com/drnkly/vendor-service/internal/app/storage/postgres"
	"github.com/drnkly/vendor-service/internal/config"
	"github.com/drnkly/vendor-service/internal/otp"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *http.Server
	db         *sql.DB
	redis      *redis.Client
	cron       *cron.Cron
}

// NewApplication constructs an application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	var (
		stores app.Stores
		db     *sql.DB
	)
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

		if err := postgres.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}

		store := postgres.New(db)
		stores = app.Stores{Orders: store, Products: store, Vendors: store}
	} else {
		log.Warn("DATABASE_URL not set; using the in-memory store")
	}

	var (
		codes       otp.Store
		redisClient *redis.Client
		scheduler   *cron.Cron
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		codes = otp.NewRedisStore(redisClient)
	} else {
		// Process-local codes do not survive restarts and cannot be shared
		// between instances; multi-instance deployments need REDIS_ADDR.
		log.Warn("REDIS_ADDR not set; verification codes are process-local")
		memCodes := otp.NewMemoryStore()
		codes = memCodes

		scheduler = cron.New()
		if _, err := scheduler.AddFunc("@every 1m", func() {
			if removed := memCodes.Sweep(); removed > 0 {
				log.WithField("removed", removed).Debug("expired verification codes evicted")
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule code sweep: %w", err)
		}
	}

	application := app.New(stores, codes, nil, log)
	handler := httpapi.NewHandler(application, cfg.Auth, log)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpSrv,
		db:         db,
		redis:      redisClient,
		cron:       scheduler,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cron != nil {
		a.cron.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and closes resources.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.cron != nil {
		cronCtx := a.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-time.After(time.Second):
		}
	}

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warnf("close redis: %v", err)
		}
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
