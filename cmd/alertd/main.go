// cmd/alertd runs the pattern and momentum alert engine: the periodic
// watchlist scanner, the alert websocket feed, and the metrics endpoint.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BalachandraRaju/finns-sub002/config"
	"github.com/BalachandraRaju/finns-sub002/internal/scanner"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	svc, err := scanner.NewService(ctx, cfg)
	if err != nil {
		log.Fatalf("[alertd] init failed: %v", err)
	}

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[alertd] fatal: %v", err)
	}
}
