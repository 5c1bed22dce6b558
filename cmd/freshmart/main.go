package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"freshmart/internal/config"
	"freshmart/internal/http/handlers"
	applog "freshmart/internal/log"
	"freshmart/internal/publisher"
	"freshmart/internal/repos"
	"freshmart/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if err := repos.Seed(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	var store session.CartStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping %s: %v", cfg.RedisAddr, err)
		}
		store = session.NewRedisStore(rdb, cfg.CartTTL)
		log.Printf("[session] carts in redis %s", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore(cfg.CartTTL)
		log.Printf("[session] carts in process memory")
	}

	deps := handlers.NewDeps(db, cfg, store)
	app := handlers.NewApp(deps, handlers.AppOptions{CSRF: true, AccessLog: true, RateLimit: 60})

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		deps.Reaper.Run(ctx)
	}()

	if len(cfg.KafkaBrokers) > 0 {
		w := publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer w.Close()
		poller := publisher.NewPoller(deps.Outbox, w, cfg.OutboxInterval)
		workers.Add(1)
		go func() {
			defer workers.Done()
			poller.Run(ctx)
		}()
	} else {
		log.Printf("[outbox] KAFKA_BROKERS empty, order events stay in the outbox table")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			applog.Error(nil, "server.shutdown", err, nil)
		}
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Error(nil, "server.listen", err, nil)
	}
	stop()
	workers.Wait()
	applog.Info(nil, "server.stop", nil)
}
