package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"image_compression/config"
	"image_compression/internal/compression"
	v1 "image_compression/internal/controller/http/v1"
	"image_compression/internal/controller/rmq"
	"image_compression/internal/telemetry"
	"image_compression/pkg/archive"
	"image_compression/pkg/httpserver"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"

	ttrace "image_compression/internal/telemetry/trace"
)

const (
	name   = "image-compression-server"
	jobTTL = 10 * time.Minute

	// GET /jobs/:id may wait up to a minute.
	writeTimeout = 90 * time.Second
)

// NewServer ...
func NewServer(ctx context.Context, cfg *config.Config) *Server {
	srv := &Server{}

	closeFn, err := telemetry.InitGlobalProvider(ctx, name, cfg.OTEL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing the tracer provider")
	}
	srv.traceProviderCloseFn = append(srv.traceProviderCloseFn, closeFn)

	return srv
}

type Server struct {
	traceProviderCloseFn []ttrace.CloseFunc
}

// Run ...
func (s *Server) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)
	l.Info("Starting server...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	images := compression.NewImageService(imagecompress.New(), compression.OptionsFromConfig(cfg.Compression), l)

	jobs := rmq.NewJobClient(jobTTL, l)
	go jobs.Run(ctx)

	amqpClient, err := rmq.NewAMQPClient(cfg.RMQ, jobs, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - rmq.NewAMQPClient: %w", err))
	}

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- amqpClient.ResponseConsumer()
	}()

	handler := gin.New()
	unpack := archive.Limits{MaxEntryBytes: cfg.Compression.MaxEntryBytes, MaxTotalBytes: cfg.Compression.MaxUnpackBytes}
	v1.NewRouter(handler, l, images, amqpClient, cfg.Compression.MaxUploadBytes, unpack)
	httpServer := httpserver.New(s.cors().Handler(handler), httpserver.Port(cfg.Server.Port), httpserver.WriteTimeout(writeTimeout))

	l.Info("server serving on port %s", cfg.Server.Port)

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	case err = <-consumerErr:
		l.Error(fmt.Errorf("app - Run - amqpClient.ResponseConsumer: %w", err))
	}

	ctxShutDown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Shutdown
	if err := httpServer.Shutdown(); err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	if err := amqpClient.Close(); err != nil {
		l.Error(fmt.Errorf("app - Run - amqpClient.Close: %w", err))
	}

	for _, closeFn := range s.traceProviderCloseFn {
		if err := closeFn(ctxShutDown); err != nil {
			log.Error().Err(err).Msgf("Unable to close trace provider")
		}
	}

	log.Printf("server exited properly")
	return err
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"POST", "GET", "HEAD", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposedHeaders:     []string{"X-Was-Compressed", "X-Meets-Limit", "X-Original-Size", "X-Final-Size", "X-Entries", "Content-Disposition"},
		MaxAge:             60, // 1 minutes
		AllowCredentials:   true,
		OptionsPassthrough: false,
		Debug:              false,
	})
}
