package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/darasahq/shule/core"
	"github.com/darasahq/shule/core/session"
	"github.com/darasahq/shule/services/api"
	logsvc "github.com/darasahq/shule/services/logger"
	"github.com/darasahq/shule/storage/sealed"
)

// app is the composition root: config, store, API client and the single
// process-wide session context are built here once and injected everywhere.
type app struct {
	cfg    *core.Config
	log    core.Logger
	client *api.Client
	sess   *session.Context
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shule:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := core.NewConfig()
	if err != nil {
		return err
	}

	std := log.New(os.Stderr, "shule ", log.LstdFlags)
	var logger core.Logger
	if cfg.Debug || cfg.RollbarToken == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, cfg)
	}

	secret := cfg.Store.Secret
	if secret == "" {
		// On device the secret comes from the OS keychain; the CLI keeps a
		// local device key instead.
		if secret, err = loadOrCreateDeviceSecret(cfg.Store.Dir); err != nil {
			return err
		}
	}
	store, err := sealed.NewStore(cfg.Store.Dir, secret)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg, logger)
	sess := session.NewContext(cfg, store, client, logger)
	client.BindCredentials(sess)

	if err := sess.Hydrate(context.Background()); err != nil {
		// A failed hydration means "treated as logged out", never fatal.
		logger.Warn("could not restore the saved session", err)
	}

	a := &app{cfg: cfg, log: logger, client: client, sess: sess}
	return a.rootCmd().Execute()
}

func loadOrCreateDeviceSecret(dir string) (string, error) {
	path := filepath.Join(dir, "device.key")
	if raw, err := os.ReadFile(path); err == nil && len(raw) > 0 {
		return string(raw), nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	secret := uuid.NewString()
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", err
	}
	return secret, nil
}
