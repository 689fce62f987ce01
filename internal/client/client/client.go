package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/client/config"
	"github.com/dmitrijs2005/cribfeed/internal/client/notify"
	"github.com/dmitrijs2005/cribfeed/internal/composer"
	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/filex"
	"github.com/dmitrijs2005/cribfeed/internal/interactions"
	"github.com/dmitrijs2005/cribfeed/internal/localstore"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/media"
	"github.com/dmitrijs2005/cribfeed/internal/seed"
	"github.com/dmitrijs2005/cribfeed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cribfeed/internal/session"
)

// App wires the client core together. Fields are read-only after New.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Session   *session.Manager
	Feed      feed.Store
	Engine    *interactions.Engine
	Composer  *composer.Composer
	Presigner *media.Presigner
	Notifier  notify.Notifier
	Router    *notify.RouteRecorder

	closers []func() error
}

// New builds the client described by cfg and restores any persisted session.
// Notifications go to out; logger may be nil to use cfg.LogBackend on stdout.
func New(ctx context.Context, cfg *config.Config, out io.Writer, logger logging.Logger) (app *App, err error) {
	if logger == nil {
		logger, err = logging.New(cfg.LogBackend, cfg.Debug)
		if err != nil {
			return nil, err
		}
	}

	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	storage, err := app.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	creds, posts, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Demo {
		if err := seed.Load(ctx, creds, posts, cfg.PasswordCost); err != nil {
			return nil, fmt.Errorf("demo seed: %w", err)
		}
		logger.Debug(ctx, "demo community loaded")
	}

	if cfg.Backend == config.BackendMemory {
		creds = credentials.WithLatency(creds, cfg.Latency())
	}

	app.Notifier = notify.NewConsole(out)
	app.Router = notify.NewRouteRecorder(app.Notifier)
	app.Feed = posts

	app.Session = session.NewManager(creds, storage, app.Router, logger, session.Config{
		SecretKey:        []byte(cfg.SecretKey),
		TokenValidity:    cfg.TokenValidity,
		OperationTimeout: cfg.OperationTimeout,
		PasswordCost:     cfg.PasswordCost,
	})

	acker, err := app.newAcknowledger()
	if err != nil {
		return nil, err
	}

	app.Engine = interactions.NewEngine(posts, acker, logger, interactions.Config{AckTimeout: cfg.AckTimeout})
	app.Composer = composer.New(posts, acker, logger, composer.WithAckTimeout(cfg.AckTimeout))
	app.Presigner = media.NewPresigner(media.Config{
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
	})

	app.Session.Restore(ctx)
	return app, nil
}

// openStorage selects the durable record store: SQLite at StoragePath or
// process memory when the path is empty.
func (a *App) openStorage(ctx context.Context) (localstore.Storage, error) {
	if a.Config.StoragePath == "" {
		return localstore.NewMemoryStorage(), nil
	}
	path, err := filex.EnsureParentDir(a.Config.StoragePath)
	if err != nil {
		return nil, err
	}
	s, err := localstore.NewSQLiteStorage(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *App) openStores(ctx context.Context) (credentials.Store, feed.Store, error) {
	switch a.Config.Backend {
	case config.BackendMemory:
		return credentials.NewMemoryStore(), feed.NewMemoryStore(), nil
	case config.BackendPostgres:
		db, err := repomanager.Open(ctx, a.Config.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		return a.postgresStores(ctx, db, repomanager.NewPostgresRepositoryManager())
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
	}
}

func (a *App) postgresStores(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) (credentials.Store, feed.Store, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return rm.Accounts(db), rm.Feed(db), nil
}

func (a *App) newAcknowledger() (ack.Acknowledger, error) {
	switch a.Config.AckMode {
	case config.AckSimulated:
		return &ack.Simulated{Latency: a.Config.Latency()}, nil
	case config.AckGRPC:
		c, err := ack.NewGRPCClient(a.Config.AckEndpoint, a.Session.Token)
		if err != nil {
			return nil, fmt.Errorf("ack client: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown ack mode %q", a.Config.AckMode)
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
