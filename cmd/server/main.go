package main

import (
	"context"
	"log"

	"image_compression/config"
	"image_compression/internal/server"

	_ "image_compression/cmd/server/docs"
)

// @title           Image compression API
// @version         1.0
// @description     Downscales and recompresses images to fit a byte budget.

// @host      localhost:8080
// @BasePath  /v1

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	ctx := context.Background()
	s := server.NewServer(ctx, cfg)
	if err := s.Run(ctx, cfg); err != nil {
		log.Printf("server stopped: %s", err)
	}
}
