package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hwbot/partswatch/internal/bot"
	"github.com/hwbot/partswatch/internal/core/config"
	"github.com/hwbot/partswatch/internal/core/worker"
	"github.com/hwbot/partswatch/internal/infra/storage"
	"github.com/hwbot/partswatch/internal/infra/storage/memory"
	"github.com/hwbot/partswatch/internal/infra/storage/postgres"
	"github.com/hwbot/partswatch/internal/ingest/fetcher"
	"github.com/hwbot/partswatch/internal/ingest/health"
	"github.com/hwbot/partswatch/internal/ingest/refresher"

	redisclient "github.com/hwbot/partswatch/internal/infra/redis"
)

// App is the main application struct that manages the service lifecycle:
// the refresh scheduler feeding the component store and the Telegram
// front-end reading from it.
type App struct {
	cfg          *config.AppConfig
	refresher    *refresher.Refresher
	bot          *bot.Bot
	pruner       *worker.Pruner
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// MigrationsDir is where goose migrations live relative to the working
// directory.
var MigrationsDir = "migrations"

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	// 1. Initialize Storage
	var (
		components storage.ComponentRepository
		schedules  storage.ScheduleRepository
		history    storage.HistoryRepository
		db         *postgres.DB
		dbChecker  health.Checker
	)

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(MigrationsDir); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		components = postgres.NewComponentRepo(db)
		schedules = postgres.NewScheduleRepo(db)
		history = postgres.NewHistoryRepo(db)
		dbChecker = db

		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		components = memory.NewComponentRepo(store)
		schedules = memory.NewScheduleRepo(store)
		history = memory.NewHistoryRepo(store)

		slog.Info("Using Memory storage")
	}

	// 2. Initialize Redis (optional stats cache)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, stats cache disabled", "error", err)
			redisClient = nil
		}
	}

	// 3. Initialize the ingest side
	fetchClient := fetcher.NewClient(fetcher.Config{
		BaseURL:        cfg.Fetch.BaseURL,
		APIKey:         cfg.Fetch.APIKey,
		APIHost:        cfg.Fetch.APIHost,
		PageSizes:      cfg.Fetch.PageSizes,
		Delays:         cfg.Fetch.Delays,
		BaseTimeout:    cfg.Fetch.BaseTimeout,
		TimeoutStep:    cfg.Fetch.TimeoutStep,
		TimeoutCeiling: cfg.Fetch.TimeoutCeiling,
		MaxRequests:    cfg.Fetch.MaxRequests,
	}, components)

	var refreshCache refresher.StatsCache
	if redisClient != nil {
		refreshCache = redisClient
	}
	refr := refresher.New(refresher.Config{
		FrequencyDays: cfg.Refresh.FrequencyDays,
		CycleInterval: cfg.Refresh.CycleInterval,
	}, fetchClient, schedules, components, refreshCache)

	// 4. Initialize the chat side
	var botCache bot.StatsCache
	if redisClient != nil {
		botCache = redisClient
	}
	botService := bot.NewService(components, history, botCache)

	var tgBot *bot.Bot
	if cfg.Telegram.Token != "" {
		var err error
		tgBot, err = bot.New(cfg.Telegram, botService)
		if err != nil {
			return nil, fmt.Errorf("failed to start telegram bot: %w", err)
		}
	} else {
		slog.Warn("No telegram token configured, bot disabled")
	}

	// 5. History pruner
	var pruner *worker.Pruner
	if cfg.History.Retention > 0 {
		pruner = worker.NewPruner(cfg.History.Retention, history)
	}

	// 6. Health endpoint
	healthMon := health.NewMonitor(schedules, dbChecker, cfg.Refresh.FrequencyDays)
	healthServer := health.NewServer(healthMon, cfg.Server.Port)

	return &App{
		cfg:          cfg,
		refresher:    refr,
		bot:          tgBot,
		pruner:       pruner,
		healthServer: healthServer,
		db:           db,
		redisClient:  redisClient,
		log:          slog.Default(),
	}, nil
}

// Start starts the app and all its components.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	go func() {
		if err := a.refresher.Run(ctx); err != nil {
			a.log.Error("Refresher failed", "error", err)
		}
	}()

	if a.bot != nil {
		go func() {
			if err := a.bot.Run(ctx); err != nil {
				a.log.Error("Bot failed", "error", err)
			}
		}()
	}

	if a.pruner != nil {
		go a.pruner.Start(ctx)
	}

	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.healthServer.Stop(ctx)
}

// Refresher exposes the scheduler for one-shot CLI commands.
func (a *App) Refresher() *refresher.Refresher { return a.refresher }
