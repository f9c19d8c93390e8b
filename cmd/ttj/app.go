package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ttj/internal/config"
	"github.com/verte-zerg/ttj/internal/logging"
	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

// app bundles what every command needs: config, logger, store and the current profile.
type app struct {
	cfg   config.FileConfig
	log   *logrus.Logger
	store *store.Store
	user  *model.User
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := logging.FromConfig(cfg.Log, os.Stderr)
	if cmd.Flags().Changed("log-level") {
		opts.Level = logLevel
	}
	log, err := logging.NewLogger(opts)
	if err != nil {
		return nil, err
	}

	path := config.DefaultDBPath()
	if cfg.DB != nil && *cfg.DB != "" {
		path = *cfg.DB
	}
	if cmd.Flags().Changed("db") {
		path = dbPath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.WithField("db", path).Debug("store opened")

	user, err := st.CurrentUser(context.Background())
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close db")
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}

	return &app{cfg: cfg, log: log, store: st, user: user}, nil
}

// userID returns the current profile id, or nil for a guest.
func (a *app) userID() *model.UserID {
	if a.user == nil {
		return nil
	}
	id := a.user.ID
	return &id
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}
