package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/screenflow/screenflow/internal/infrastructure/config"
	"github.com/screenflow/screenflow/internal/infrastructure/logging"
	"github.com/screenflow/screenflow/internal/server"
)

func main() {
	cfg := config.LoadOrDefault()

	// Flags override the environment.
	port := flag.String("port", cfg.Server.Port, "HTTP port")
	hostMode := flag.String("host", cfg.Host.Mode, "navigation host adapter: memory or ws")
	manifest := flag.String("routes", cfg.Routes.Manifest, "route manifest path")
	flag.Parse()
	cfg.Server.Port = *port
	cfg.Host.Mode = *hostMode
	cfg.Routes.Manifest = *manifest

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutting down")
		if err := srv.Close(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("server error: %v", err)
	}
}
