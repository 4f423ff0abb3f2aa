package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lachiem1/rentdesk/internal/config"
	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/session"
	"github.com/lachiem1/rentdesk/internal/storage"
	"go.uber.org/zap"
)

// app is the set of services one command runs against.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Session
	client  *rentapi.Client
	db      *sql.DB
	handler *forms.Handler
}

type appOptions struct {
	// logToFile sends logs to a file instead of stderr, for commands that
	// own the terminal.
	logToFile bool
	// withDB opens the local cache.
	withDB bool
}

func newApp(ctx context.Context, opts *rootOptions, ao appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logging := cfg.Logging
	if ao.logToFile && logging.OutputFile == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		logging.OutputFile = filepath.Join(dir, "rentdesk.log")
	}
	logger, err := config.NewLogger(logging, opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		session: session.New(cfg.Session.KeyringService, cfg.Session.KeyringAccount),
	}
	a.client = rentapi.New(cfg.Server.BaseURL, a.session).
		WithTimeout(cfg.Server.Timeout).
		WithLogger(logger)

	handlerCfg := forms.Config{
		OptOutClass: cfg.UI.OptOutClass,
		BannerTTL:   cfg.UI.BannerTTL,
		Logger:      logger,
	}
	if ao.withDB {
		dbCfg, err := a.storageConfig(opts)
		if err != nil {
			return nil, err
		}
		db, err := storage.Open(ctx, dbCfg, a.session)
		if err != nil {
			logger.Error("open local cache", zap.String("op", "storage"), zap.String("mode", string(dbCfg.Mode)), zap.Error(err))
			return nil, fmt.Errorf("open local cache: %w", err)
		}
		a.db = db
		handlerCfg.Preferences = storage.NewAppConfigRepo(db)
	}
	a.handler = forms.New(a.client, a.session, handlerCfg)
	return a, nil
}

// storageConfig resolves the cache location; flags win over
// storage.path in the config file.
func (a *app) storageConfig(opts *rootOptions) (storage.Config, error) {
	path := opts.dbPath
	if path == "" {
		path = a.cfg.Storage.Path
	}
	return storage.ResolveConfig(path, opts.dbMode)
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close local cache", zap.String("op", "storage"), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// outcomeError turns an outcome that reports a failure into an error so
// the command exits non-zero.
func outcomeError(o forms.Outcome) error {
	switch {
	case o.Busy:
		return errors.New(o.Summary())
	case o.Alert != "":
		return errors.New(o.Alert)
	}
	return nil
}
