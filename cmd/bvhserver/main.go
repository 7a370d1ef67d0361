package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/binzume/bvhkit/config"
	"github.com/binzume/bvhkit/server"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	confFile := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "listen address (default :8090)")
	dataDir := flag.String("data", "", "directory containing .bvh files")
	scale := flag.Float64("scale", 0, "scale offsets and positions")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*confFile)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{Addr: *addr, DataDir: *dataDir, Scale: *scale})

	store := server.NewMotionStore(cfg.Server.DataDir, cfg.Scale)
	srv := server.NewServer(store, log, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting bvhserver", "addr", cfg.Server.Addr, "data", cfg.Server.DataDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
