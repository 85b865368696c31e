package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"assistd/internal/config"
	"assistd/internal/gateway"
	"assistd/internal/hardware"
	"assistd/internal/httpapi"
	"assistd/internal/manager"
	"assistd/internal/store"
	"assistd/pkg/types"
)

// app is the wired component graph shared by serve and provision.
type app struct {
	store *store.Store
	gw    *gateway.Client
	mgr   *manager.Manager
}

func newApp(ctx context.Context, cfg config.Config, log *zerolog.Logger) (*app, error) {
	st, err := store.Open(ctx, store.Config{Path: cfg.Database.Path, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	gw := gateway.New(gateway.Config{
		BaseURL:       cfg.Ollama.BaseURL,
		Timeout:       cfg.Ollama.Timeout(),
		HealthTimeout: cfg.Ollama.HealthTimeout(),
		Logger:        log,
	})
	mc := manager.FromConfig(cfg)
	mc.Profiler = newProber(cfg, log)
	mc.Generator = gw
	mc.Store = st
	mc.Logger = log
	mc.Publisher = httpapi.EventMetrics{}
	return &app{store: st, gw: gw, mgr: manager.NewWithConfig(mc)}, nil
}

func (a *app) Close() error { return a.store.Close() }

func hardwareResponse(p types.HardwareProfile) types.HardwareResponse {
	return types.HardwareResponse{Tier: hardware.Classify(p).String(), Details: p}
}
