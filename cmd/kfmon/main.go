package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"kfmon/internal/application/port"
	"kfmon/internal/application/service/collector"
	"kfmon/internal/application/service/render"
	"kfmon/internal/domain"
	"kfmon/internal/infrastructure/config"
	"kfmon/internal/infrastructure/exchange/kraken"
	"kfmon/internal/infrastructure/logger"
	"kfmon/internal/infrastructure/signals/postgres"
	"kfmon/internal/infrastructure/storage/memory"
	"kfmon/internal/infrastructure/storage/redis"
	"kfmon/internal/infrastructure/storage/sqlite"
	"kfmon/internal/interfaces/web"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the only fatal runtime condition: the telemetry store must come up
	store, err := sqlite.New(cfg.Store.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Store.SQLitePath).Msg("telemetry store init failed")
	}
	defer store.Close()

	var cache port.LatestCache
	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		cache = redis.New(rdb, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis latest cache enabled")
	} else {
		cache = memory.NewCache()
	}
	defer cache.Close()

	var account port.AccountSource
	if cfg.Kraken.APIKey != "" && cfg.Kraken.APISecret != "" {
		account = kraken.New(cfg.Kraken.BaseURL, cfg.Kraken.APIKey, cfg.Kraken.APISecret)
	} else {
		log.Warn().Msg("kraken credentials missing, equity and positions will be degraded")
	}

	var signalSource port.SignalSource
	if cfg.Signals.PostgresDSN != "" {
		src, err := postgres.New(cfg.Signals.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Msg("signal source unavailable, signals will be degraded")
		} else {
			signalSource = src
			defer src.Close()
		}
	} else {
		log.Warn().Msg("no signal source configured, signals will be degraded")
	}

	resolver := domain.NewResolver(cfg.ResolverRules())
	hub := web.NewHub()

	svc := collector.New(collector.Deps{
		Store:              store,
		Account:            account,
		Signals:            signalSource,
		Cache:              cache,
		Sink:               hub,
		Interval:           cfg.Interval(),
		FetchTimeout:       cfg.FetchTimeout(),
		Retention:          cfg.Retention(),
		PreferredTimeframe: cfg.Signals.PreferredTimeframe,
	})
	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("collector exited")
		}
	}()

	server := web.NewServer(render.New(store, resolver), cache, hub, resolver)
	httpServer := &http.Server{Addr: cfg.Web.Listen, Handler: server.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("config", *configPath).
		Str("listen", cfg.Web.Listen).
		Dur("interval", cfg.Interval()).
		Dur("retention", cfg.Retention()).
		Msg("kfmon started")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Warn().Msg("exit")
}
