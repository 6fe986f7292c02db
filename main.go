package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bardata/api/alpaca"
	"bardata/config"
	c "bardata/core"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// load in environment variables, .env file included
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	location, err := cfg.MarketLocation()
	if err != nil {
		log.Fatalf("Failed to resolve market timezone %s: %v", cfg.MarketTimezone, err)
	}

	// get alpaca client
	client := alpaca.GetClient(cfg.AlpacaKeyID, cfg.AlpacaSecretKey,
		alpaca.WithHost(cfg.AlpacaHost),
		alpaca.WithTimeout(cfg.RequestTimeout))

	sc := c.GetServiceContext(ctx, client, location, cfg.MaxWorkers, cfg.ChunkSize)

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc, cfg.ServerAddr)

	// start http server in goroutine
	go func() {
		log.Printf("Starting bardata server on %s", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// golang channel, will wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	log.Println("Received shutdown signal, shutting down gracefully...")

	// this gives the server 10 seconds to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped successfully")
}
