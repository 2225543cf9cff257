package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/server"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "Server port (overrides config)")
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	// Load configuration: env vars first, optional file overlay on top
	cfg := config.LoadOrDefault()
	if *configPath != "" {
		if err := config.LoadFile(cfg, *configPath); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create server
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
