package control

import (
	"context"
	"testing"
	"time"

	"github.com/hwbot/partswatch/internal/core/config"
)

func TestApp_MemoryModeWiring(t *testing.T) {
	// No database URL, no redis, no telegram token: the app must still
	// come up on the in-memory store with the bot and cache disabled.
	cfg := &config.AppConfig{}
	cfg.Server.Port = 0
	cfg.Refresh.FrequencyDays = 7
	cfg.Refresh.CycleInterval = time.Hour
	cfg.Fetch.BaseURL = "http://localhost:0"

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.bot != nil {
		t.Error("bot should be disabled without a token")
	}
	if app.redisClient != nil {
		t.Error("redis client should be disabled without a URL")
	}
	if app.pruner != nil {
		t.Error("pruner should be disabled without a retention")
	}

	// Dry-run Start/Stop to ensure no panic. Bootstrap staggers due
	// dates into the future, so the first cycle fetches nothing.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
