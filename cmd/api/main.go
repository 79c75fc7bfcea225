package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"labportal/internal/httpapi"
	"labportal/pkg/config"
	"labportal/pkg/db"
	"labportal/pkg/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	// Redis is optional: without it notifications persist to the DB only.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, live notifications disabled")
			rdb = nil
		}
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:   cfg,
		DB:    pool,
		Redis: rdb,
		Log:   log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
