package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/db"
	httpapi "acty-backend-go/internal/http"
	"acty-backend-go/internal/jobs"
	"acty-backend-go/internal/logging"
	"acty-backend-go/internal/seed"
	"acty-backend-go/internal/services"
	"acty-backend-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeStore()

	var rdb *store.Redis
	if cfg.RedisAddr != "" {
		rdb = store.NewRedis(cfg.RedisAddr)
		if !rdb.Healthy(ctx) {
			log.Printf("[redis] %s unreachable, scan limits fall back to memory", cfg.RedisAddr)
		}
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := services.NewScanHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(cfg, st, rdb, hub, reg)

	if cfg.SeedFile != "" {
		file, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if _, err := seed.Apply(ctx, st, server.Tokens, file, time.Now().UTC()); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}
	if _, err := server.Identity.EnsureSampleEmployee(ctx); err != nil {
		log.Fatalf("sample employee: %v", err)
	}

	sweeper, err := jobs.NewSweeper(cfg.SweepSchedule, server.Activities)
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	sweeper.RunOnce()
	sweeper.Start()

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (auth=%s store=%s)", addr, cfg.AuthMode, cfg.StoreBackend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	sweeper.Stop(ctxShutdown)
	_ = httpServer.Shutdown(ctxShutdown)
	cancel()
	log.Printf("shutdown complete")
}
