package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/example/court-scheduler/internal/bookexec"
	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/history"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/portal"
	"github.com/example/court-scheduler/internal/portal/arsenal"
	"github.com/example/court-scheduler/internal/portal/postsv"
	"github.com/example/court-scheduler/internal/preference"
	"github.com/example/court-scheduler/internal/timeframe"
	"github.com/example/court-scheduler/internal/trainer"
)

// app is the shared wiring for the portal-facing commands. History lives in
// JSON files next to the binary unless DATABASE_URL switches it to Postgres.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	creds      *creds.Store
	selections history.SelectionStore
	attempts   history.AttemptStore
	prefs      *preference.Engine
	aggregator *portal.Aggregator
	executor   *bookexec.Executor
	trainers   *trainer.Finder
	parser     *timeframe.Parser

	dbConn *db.DB
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	a := &app{cfg: cfg, logger: logger}
	a.creds = creds.NewStore(cfg.CredentialsFile)

	if cfg.DatabaseURL != "" {
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
		a.dbConn = d
		pg := history.NewPgStore(ctx, d)
		a.selections = pg
		a.attempts = pg
	} else {
		a.selections = history.NewFileSelectionStore(cfg.PreferencesFile, logger)
		a.attempts = history.NewFileAttemptStore(cfg.HistoryFile, logger)
	}

	a.prefs = preference.New(a.selections, logger)
	a.aggregator = portal.NewAggregator(logger,
		arsenal.New(cfg.ArsenalBaseURL, cfg.HTTPTimeout, logger),
		postsv.New(cfg.PostSVBaseURL, a.creds, cfg.HTTPTimeout, logger),
	)
	a.executor = bookexec.New(cfg, a.creds, a.attempts, a.prefs, logger)
	a.trainers = trainer.New(cfg.ArsenalBaseURL, a.creds, cfg.HTTPTimeout, logger)
	a.parser = timeframe.New()

	return a, nil
}

func (a *app) close() {
	if a.dbConn != nil {
		a.dbConn.Close()
	}
}
