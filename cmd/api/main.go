package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stonx/internal/infrastructure/config"
	"stonx/internal/infrastructure/db"
	httpapi "stonx/internal/interface/http"
)

func main() {
	cfgPath := "config.yaml"
	if v := os.Getenv("STONX_CONFIG"); v != "" {
		cfgPath = v
	}
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		log.Fatalf("CRITICAL: load config failed: %v", err)
	}
	log.Printf("configuration loaded (HTTP_ADDR=%s provider=%s)", cfg.HTTP.Addr, cfg.MarketData.Provider)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	log.Printf("testing database connection...")
	pool, err := db.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		log.Printf("warning: database connection failed, falling back to in-memory store: %v", err)
		pool = nil
	} else if pool == nil {
		log.Printf("no DB_DSN provided; running with in-memory store only")
	} else {
		defer pool.Close()
		log.Printf("database connected successfully")
	}

	apiServer := httpapi.NewServer(cfg, pool)
	defer apiServer.Close()
	if err := apiServer.StartBackground(); err != nil {
		log.Fatalf("start refresh scheduler failed: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, stopCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopCancel()

	go func() {
		log.Printf("starting HTTP server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-stop.Done()
	log.Printf("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
