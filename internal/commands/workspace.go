package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/config"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/gitops"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/reconcile"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

// configFile is the workspace configuration file name.
const configFile = "ledgerdesk.yaml"

// workspace bundles the services a command needs, loaded from a data
// directory.
type workspace struct {
	dir    string
	cfg    *config.Config
	log    *logrus.Logger
	store  *store.Store
	engine *reconcile.Engine
}

// openWorkspace loads config, snapshot, and services from a directory.
func openWorkspace(dir string) (*workspace, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, configFile))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Logging.Level != "" {
		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		log.SetLevel(level)
	}

	st, err := store.Load(absDir, policy.NewValidationPolicy(cfg.RequiredFields), store.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("loading store: %w", err)
	}

	// Custom entities already present in the snapshot win; config declares
	// the rest.
	for _, ce := range cfg.CustomEntities {
		if _, ok := st.CustomEntity(ce.ID); ok {
			continue
		}
		if err := st.RegisterCustomEntity(ce.ToDef()); err != nil {
			return nil, fmt.Errorf("registering custom entity %s: %w", ce.ID, err)
		}
	}

	engineCfg := reconcile.Config{
		AmountTolerancePct: decimal.NewFromFloat(cfg.Reconciliation.AmountTolerancePct),
		DateWindowDays:     cfg.Reconciliation.DateWindowDays,
		MaxSuggestions:     cfg.Reconciliation.MaxSuggestions,
	}

	return &workspace{
		dir:    absDir,
		cfg:    cfg,
		log:    log,
		store:  st,
		engine: reconcile.NewEngine(st, engineCfg, log),
	}, nil
}

// save persists the snapshot and auto-commits the data directory when
// configured.
func (w *workspace) save(message string) error {
	if err := w.store.Save(w.dir); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	hash, err := gitops.AutoCommit(w.dir, message, w.cfg.Git.AuthorName, w.cfg.Git.AuthorEmail, w.cfg.Git.AutoCommit)
	if err != nil {
		return fmt.Errorf("auto-commit: %w", err)
	}
	if hash != "" {
		w.log.WithField("commit", hash).Debug("committed data directory")
	}
	return nil
}

// actorUser builds the acting identity for CLI-driven mutations. The CLI
// runs with full visibility; ownership filtering applies to embedded
// consumers.
func actorUser(name string) policy.User {
	return policy.User{ID: name, Name: name, Role: policy.RoleAdmin}
}
