package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/config"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/store"
	"github.com/abhisek/tutor/internal/tutor"
)

// env bundles what a command needs to talk to the tutor.
type env struct {
	cfg config.Config
	st  *store.Store
	svc *tutor.Service
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database: %s", dbPath)
	return st, nil
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	svc, err := tutor.Open(cmd.Context(), cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &env{cfg: cfg, st: st, svc: svc}, nil
}

func (e *env) Close() {
	if err := e.svc.Close(); err != nil {
		logger.Warn("close tutor: %v", err)
	}
	if err := e.st.Close(); err != nil {
		logger.Warn("close database: %v", err)
	}
}

// userError replaces err with its concise user-facing message. The full
// chain is kept in the debug log.
func userError(err error) error {
	logger.Debug("%v", err)
	return errors.New(tutor.UserMessage(err))
}
