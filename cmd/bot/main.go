package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"macroalloc/internal/broker"
	"macroalloc/internal/config"
	"macroalloc/internal/engine"
	"macroalloc/internal/feed"
	"macroalloc/internal/metrics"
	"macroalloc/internal/rebalance"
	"macroalloc/internal/scheduler"
	"macroalloc/internal/server"
	"macroalloc/internal/state"
	"macroalloc/internal/strategy"
	"macroalloc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("config error")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	strategyCfg, err := strategy.LoadConfig(cfg.StrategyConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy config error")
	}
	strat := strategy.NewMacroTrend(strategyCfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("series source error")
	}
	defer closeSource()

	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("decision logger error")
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close decision logger")
		}
	}()

	store := state.NewStore()
	loadCheckpoint(store, cfg.CheckpointPath, log)

	var executor engine.Executor
	if cfg.Mode == config.ModePaper {
		executor = broker.New(cfg.APIKey, cfg.APISecret, cfg.PaperBaseURL, log)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	engineImpl := engine.New(cfg, strat, source, rebalance.NewGate(log), executor, store, decisions, recorder, log)
	log.Info().
		Str("run_id", engineImpl.RunID()).
		Str("mode", string(cfg.Mode)).
		Str("source", cfg.Source).
		Strs("assets", strat.Assets()).
		Str("interval", strat.Interval()).
		Strs("data", strat.DataKeys()).
		Msg("starting bot")

	if cfg.Once {
		engineImpl.Evaluate(ctx)
		saveCheckpoint(store, cfg.CheckpointPath, log)
		return
	}

	schedule, err := scheduler.ScheduleFor(strat.Interval())
	if err != nil {
		log.Fatal().Err(err).Msg("unsupported strategy interval")
	}
	sched := scheduler.New(log)
	job := engineImpl.Job(ctx)
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule evaluation")
	}
	if err := sched.RunNow(job); err != nil {
		log.Error().Err(err).Msg("initial evaluation failed")
	}
	sched.Start()

	var statusServer *server.Server
	if cfg.HTTPAddr != "" {
		statusServer = server.New(cfg.HTTPAddr, strat, store, registry, log)
		go func() {
			if err := statusServer.Start(); err != nil {
				log.Error().Err(err).Msg("status server stopped")
				cancel()
			}
		}()
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-signalChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	sched.Stop()
	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status server shutdown failed")
		}
		shutdownCancel()
	}

	saveCheckpoint(store, cfg.CheckpointPath, log)
	log.Info().Msg("bot shutdown complete")
}

func openSource(ctx context.Context, cfg config.Config) (feed.Source, func(), error) {
	switch cfg.Source {
	case config.SourceSQLite:
		store, err := feed.OpenSQLite(ctx, cfg.DBPath, cfg.Lookback)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return feed.NewFileSource(cfg.SeriesFile), func() {}, nil
	}
}

func loadCheckpoint(store *state.Store, path string, log zerolog.Logger) {
	err := store.Load(path)
	switch {
	case err == nil:
		log.Info().Str("path", path).Msg("loaded checkpoint")
	case errors.Is(err, fs.ErrNotExist):
	default:
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable checkpoint")
	}
}

func saveCheckpoint(store *state.Store, path string, log zerolog.Logger) {
	if err := store.Save(path); err != nil {
		log.Error().Err(err).Msg("failed to save checkpoint")
	}
}
