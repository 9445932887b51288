package app

import (
	"context"
	"fmt"

	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/db"
	"github.com/homestage-ai/staging-client/internal/db/models"
	"github.com/homestage-ai/staging-client/internal/db/repository"
	"github.com/homestage-ai/staging-client/internal/services/downloader"
	"github.com/homestage-ai/staging-client/pkg/logger"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	ctx        context.Context
	cancelFunc context.CancelFunc
	db         *bun.DB
	downloader *downloader.Downloader

	Logger *zap.Logger

	SessionRepository     repository.ISessionRepository
	StagedImageRepository repository.IStagedImageRepository
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithHistoryDB() OptionFunc {
	return func(app *App) error {
		dbConn, err := db.NewConnection(app.ctx, app.config)
		if err != nil {
			return err
		}
		app.db = dbConn.GetDB()

		if app.config.Environment == "dev" {
			app.db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(false)))
		}

		err = app.db.RunInTx(app.ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			tables := []interface{}{
				(*models.Session)(nil),
				(*models.StagedImage)(nil),
			}

			for _, table := range tables {
				if _, err := tx.NewCreateTable().
					Model(table).
					IfNotExists().
					Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		app.SessionRepository = repository.NewSessionRepository(app.db)
		app.StagedImageRepository = repository.NewStagedImageRepository(app.db)

		return nil
	}
}

func WithDownloader(options ...downloader.Option) OptionFunc {
	return func(app *App) error {
		app.downloader = downloader.New(app.config.OutputDir, 4, options...)
		return nil
	}
}

func NewApp(cfg *config.Config, options ...OptionFunc) (*App, error) {
	log, err := logger.InitLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     cfg,
		Logger:     log,
		cancelFunc: cancel,
	}

	for _, opt := range options {
		if err := opt(app); err != nil {
			cancel()
			return nil, err
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.downloader != nil {
		app.downloader.Stop()
	}
	if app.db != nil {
		app.db.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) DB() *bun.DB {
	return app.db
}

func (app *App) Downloader() *downloader.Downloader {
	return app.downloader
}
