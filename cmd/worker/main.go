package main

import (
	"context"
	"log"

	"image_compression/config"
	"image_compression/internal/worker"
)

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	ctx := context.Background()
	w := worker.NewWorker(ctx, cfg)
	if err := w.Run(ctx, cfg); err != nil {
		log.Printf("worker stopped: %s", err)
	}
}
