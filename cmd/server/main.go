package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/weframe/weframe-server/internal/config"
	"github.com/weframe/weframe-server/pkg/logger"
	"github.com/weframe/weframe-server/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.SetLevel(cfg.LogLevel)
	logger.Info("starting weframe server...")
	logger.Info("listen address: %s", cfg.ListenAddr)
	logger.Info("session idle TTL: %s", cfg.SessionIdleTTL())
	logger.Info("session max duration: %s", cfg.SessionMaxDuration())

	manager := server.NewManager(cfg.BroadcastCapacity, cfg.SessionMaxDuration())
	srv := server.NewServer(manager, server.DefaultReadTimeout, server.DefaultWriteTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.StartSweeper(ctx, cfg.SessionIdleTTL(), cfg.SweeperInterval())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down...")
		cancel()
		srv.Shutdown(ctx)
		os.Exit(0)
	}()

	log.Fatal(srv.ListenAndServe(cfg.ListenAddr))
}
