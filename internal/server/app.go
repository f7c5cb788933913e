// Package server assembles the index server from configuration: store,
// upload issuer, notifier, services and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/config"
	"github.com/sampottinger/kipling-package-index/internal/server/httpapi"
	"github.com/sampottinger/kipling-package-index/internal/server/metrics"
	"github.com/sampottinger/kipling-package-index/internal/server/notify"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/repomanager"
	"github.com/sampottinger/kipling-package-index/internal/server/services"
	"github.com/sampottinger/kipling-package-index/internal/server/uploads"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// logOutput is where the JSON log goes.
var logOutput io.Writer = os.Stdout

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(logOutput, c.LogLevel)

	db, rm, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	issuer, err := uploads.New(ctx, c)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("upload issuer init error: %w", err)
	}

	var notifier notify.Notifier
	if c.SMTPAddr == "" {
		notifier = notify.NewLogNotifier(logger.With("module", "notify"))
	} else {
		notifier = notify.NewSMTPNotifier(notify.SMTPOptions{
			Addr:        c.SMTPAddr,
			User:        c.SMTPUser,
			Password:    c.SMTPPassword,
			FromAddress: c.MailFromAddress,
			FromName:    c.MailFromName,
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewRecorder(reg)

	ps := services.NewPackageService(db, rm, issuer, logger, rec)
	us := services.NewUserService(db, rm, notifier, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.EndpointAddr, logger, ps, us, rec, reg),
	}, nil
}

func openStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.StoreDriver == config.StoreMemory {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer closeDB(app.db)

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "signer", app.config.UploadSigner)
	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}
	return nil
}
