package worker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"image_compression/config"
	"image_compression/internal/compression"
	"image_compression/internal/controller/rmq"
	"image_compression/internal/db/gorm/mysql"
	"image_compression/internal/storage/s3repo"
	"image_compression/internal/telemetry"
	"image_compression/pkg/httpserver"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"

	ttrace "image_compression/internal/telemetry/trace"
)

var name = "image-compression-worker"

// NewWorker ...
func NewWorker(ctx context.Context, cfg *config.Config) *Worker {
	worker := &Worker{}

	closeFn, err := telemetry.InitGlobalProvider(ctx, name, cfg.OTEL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing the tracer provider")
	}
	worker.traceProviderCloseFn = append(worker.traceProviderCloseFn, closeFn)

	return worker
}

type Worker struct {
	traceProviderCloseFn []ttrace.CloseFunc
}

// Run ...
func (s *Worker) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)
	db := mysql.NewDB(cfg.MYSQL)

	repo := compression.NewCompressionRepository(db, l)
	if err := repo.Migrate(ctx); err != nil {
		l.Fatal(fmt.Errorf("app - Run - repo.Migrate: %w", err))
	}

	images := compression.NewImageService(imagecompress.New(), compression.OptionsFromConfig(cfg.Compression), l)
	compUsecase := compression.NewCompressionUsecase(s3repo.NewS3Repository(cfg.S3), repo, images, cfg.S3.ResultBucketSuffix, l)

	amqpWorker, err := rmq.NewAMQPWorker(cfg.RMQ, l, compUsecase)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - rmq.NewAMQPWorker: %w", err))
	}

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- amqpWorker.StartConsumer()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := httpserver.New(mux, httpserver.Port(cfg.OTEL.PrometheusPort))

	l.Info("compression worker started")

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err = <-consumerErr:
		l.Error(fmt.Errorf("app - Run - amqpWorker.StartConsumer: %w", err))
	case err = <-metricsServer.Notify():
		l.Error(fmt.Errorf("app - Run - metricsServer.Notify: %w", err))
	}

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown
	if err := amqpWorker.Close(); err != nil {
		l.Error(fmt.Errorf("app - Run - amqpWorker.Close: %w", err))
	}

	if err := metricsServer.Shutdown(); err != nil {
		l.Error(fmt.Errorf("app - Run - metricsServer.Shutdown: %w", err))
	}

	sql, dbErr := db.DB()
	if dbErr != nil {
		log.Fatal().Msgf("unable to get db driver")
	}

	if dbErr = sql.Close(); dbErr != nil {
		log.Fatal().Msgf("unable close db connection")
	}

	for _, closeFn := range s.traceProviderCloseFn {
		if err := closeFn(ctxShutDown); err != nil {
			log.Error().Err(err).Msgf("Unable to close trace provider")
		}
	}

	log.Printf("worker exited properly")
	return err
}
