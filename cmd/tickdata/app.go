package main

import (
	"fmt"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/collector"
	"TickData/internal/config"
	"TickData/internal/logging"
	"TickData/internal/notifier"
	"TickData/internal/recorder"

	"go.uber.org/zap"
)

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	cal     *calendar.Calendar
	catalog *asset.Catalog
	assets  []*asset.Asset
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cal, err := calendar.New(cfg.FirstYearToFetch)
	if err != nil {
		return nil, fmt.Errorf("init calendar: %w", err)
	}

	catalog, err := asset.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	assets, err := catalog.Parse(cfg.AssetsToFetch)
	if err != nil {
		return nil, fmt.Errorf("assets_to_fetch: %w", err)
	}

	return &app{cfg: cfg, log: log, cal: cal, catalog: catalog, assets: assets}, nil
}

func (a *app) collector() *collector.Collector {
	f := a.cfg.Fetch
	fetcher := collector.NewHistDataFetcher(f.BaseURL, f.Proxy, f.Timeout, f.MaxRetries, a.log)
	a.log.Info("data source", zap.String("fetcher", fetcher.Name()), zap.String("url", fetcher.BaseURL))
	return collector.NewCollector(a.cal, fetcher, a.cfg.TickDataPath, f.Parallelism, a.log)
}

// recorder falls back to a no-op recorder when SQLite is not configured or
// cannot be opened.
func (a *app) recorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}

// telegram returns nil when no bot is configured.
func (a *app) telegram() *notifier.TelegramNotifier {
	t := a.cfg.Telegram
	if t.BotToken == "" {
		return nil
	}
	return notifier.NewTelegramNotifier(t.BotToken, t.ChatID, a.cfg.Fetch.Proxy, a.log)
}

func (a *app) notifier() notifier.Notifier {
	if tn := a.telegram(); tn != nil {
		return tn
	}
	return notifier.NoopNotifier{}
}
