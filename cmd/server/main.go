package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/filedeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("FILEDECK_CONFIG"), "Optional TOML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dbPath := flag.String("db", "", "Storage path (overrides config)")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *dev {
		cfg.Logging.Development = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			srv.Shutdown(context.Background())
			log.Fatalf("Server error: %v", err)
		}
	}
}
