// Package app wires the authorization and session components together:
// persisted storage, token store, backend client, permission directory,
// identity session, activity tracker and route guard.
package app

import (
	"context"
	"log/slog"

	"github.com/sanlucas/hospital/pkg/activity"
	"github.com/sanlucas/hospital/pkg/authgate"
	"github.com/sanlucas/hospital/pkg/hospitalapi"
	"github.com/sanlucas/hospital/pkg/identity"
	"github.com/sanlucas/hospital/pkg/kvstore/drivers/sqlite"
	"github.com/sanlucas/hospital/pkg/permdir"
	"github.com/sanlucas/hospital/pkg/slogx"
	"github.com/sanlucas/hospital/pkg/tokenstore"

	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Log *slog.Logger

	Store       *sqlite.Store
	Tokens      *tokenstore.Store
	API         *hospitalapi.Client
	Permissions *permdir.Directory
	Identity    *identity.Service
	Activity    *activity.Tracker
	Guard       *authgate.Guard
}

// New builds the application graph. notify and nav are the presentation
// ports (toasts and routing), owned by the UI shell.
func New(cfg Config, notify activity.Notifier, nav activity.Navigator) (*App, error) {
	log := slogx.New(slogx.Config{
		App:     "hospital-client",
		Version: cfg.Version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	store, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(); err != nil {
		_ = store.Close()
		return nil, err
	}

	tokens := tokenstore.New(store)
	api := hospitalapi.NewClient(cfg.APIBaseURL, tokens)

	perms := permdir.New(api, tokens, permdir.Options{
		Logger:            log,
		ReconcileInterval: cfg.ReconcileInt,
		Registerer:        prometheus.DefaultRegisterer,
	})

	ids := identity.New(api, tokens, perms, log)

	tracker := activity.NewTracker(store, ids, notify, nav, activity.Config{
		Timeout:     cfg.SessionTimeout,
		WarningLead: cfg.WarningLead,
		Logger:      log,
	})

	return &App{
		Log:         log,
		Store:       store,
		Tokens:      tokens,
		API:         api,
		Permissions: perms,
		Identity:    ids,
		Activity:    tracker,
		Guard:       authgate.NewGuard(ids, perms),
	}, nil
}

// Start resolves the stored token and launches the background workers.
// The activity tracker starts before identity init so it observes the
// initialization outcome rather than racing it.
func (a *App) Start(ctx context.Context) {
	a.Activity.Start()
	a.Identity.Init(ctx)
	a.Permissions.Start()
}

// Stop shuts down the background workers and closes storage.
func (a *App) Stop() error {
	a.Activity.Stop()
	a.Permissions.Stop()
	return a.Store.Close()
}
