package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/advisor"
	"github.com/tornwatch/tornwatch/internal/core/engine"
	"github.com/tornwatch/tornwatch/internal/core/store"
	"github.com/tornwatch/tornwatch/internal/observability"
)

// credentialID names the single key tornwatch manages per install.
const credentialID = "primary"

var (
	dryRun        bool
	simulateMoney bool
)

// app bundles everything a command needs once the composition root has run.
type app struct {
	cfg     *config.Config
	store   *store.Store
	advisor *advisor.Advisor
	audit   *zap.Logger
}

func (a *app) Close() {
	if a == nil {
		return
	}
	if a.audit != nil {
		_ = a.audit.Sync()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// The key and user id can come from config, env, or an interactive
	// prompt as a last resort. The key never goes back into a file.
	if cfg.API.Key == "" {
		cfg.API.Key, err = promptFor("Torn API key")
		if err != nil {
			return nil, err
		}
	}
	if cfg.API.UserID == "" {
		cfg.API.UserID, err = promptFor("Torn user id")
		if err != nil {
			return nil, err
		}
	}
	if cfg.API.Key == "" || cfg.API.UserID == "" {
		return nil, fmt.Errorf("api key and user id are required")
	}

	return cfg, nil
}

func promptFor(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildApp wires the full stack: config, store, guard seeded from persisted
// disable state, limiter, client and advisor.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auditLog, err := observability.NewAuditLogger(cfg.Logging)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cred := &core.Credential{ID: credentialID, Key: cfg.API.Key}
	if err := db.EnsureCredential(ctx, cred.ID, cred.Key); err != nil {
		_ = db.Close()
		return nil, err
	}
	disabledAt, err := db.CredentialDisabledAt(ctx, cred.ID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cred.DisabledAt = disabledAt

	guard := engine.NewCredentialGuard(cfg.API.AuthFailureThreshold)
	guard.Seed(cred.ID, disabledAt)

	limiter := engine.NewLimiter(cfg.API.MaxRequestsPerMinute, cfg.API.MinSpacing)
	client := engine.NewClient(cfg.API, cred, limiter, guard, db, auditLog)

	adv := &advisor.Advisor{
		Client:          client,
		Store:           db,
		UserID:          cfg.API.UserID,
		EnergyThreshold: cfg.Advisor.EnergyThreshold,
		NerveThreshold:  cfg.Advisor.NerveThreshold,
		SimulateMoney:   simulateMoney,
		DryRun:          dryRun,
		Log:             auditLog,
	}

	return &app{cfg: cfg, store: db, advisor: adv, audit: auditLog}, nil
}
