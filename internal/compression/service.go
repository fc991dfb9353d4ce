package compression

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/config"
	"image_compression/internal/metrics"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"
)

// ImageService runs the downscaler with metrics and logging around it.
type ImageService struct {
	compressor *imagecompress.Compressor
	defaults   imagecompress.Options
	l          logger.Interface
}

func NewImageService(compressor *imagecompress.Compressor, defaults imagecompress.Options, l logger.Interface) *ImageService {
	return &ImageService{compressor: compressor, defaults: defaults, l: l}
}

// OptionsFromConfig -.
func OptionsFromConfig(cfg config.Compression) imagecompress.Options {
	return imagecompress.NewOptions(cfg.MaxSizeBytes,
		imagecompress.MaxDimension(cfg.MaxDimension),
		imagecompress.Quality(cfg.InitialQuality, cfg.MinQuality, cfg.QualityStep),
		imagecompress.MaxAttempts(cfg.MaxAttempts),
		imagecompress.MaxPixels(cfg.MaxPixels),
		imagecompress.PreferWebP(cfg.PreferWebP),
	)
}

func (s *ImageService) DefaultOptions() imagecompress.Options {
	return s.defaults
}

func (s *ImageService) CompressFile(ctx context.Context, file *imagecompress.File, opts imagecompress.Options) (*imagecompress.Result, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "CompressFile")
	defer span.End()

	start := time.Now()
	res, err := s.compressor.Compress(ctx, file, opts)
	outcome := metrics.ObserveCompression(res, err, time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))

	if err != nil {
		s.l.Error(fmt.Errorf("compression - CompressFile: %w", err))
		return nil, err
	}

	s.l.Info("compression - %s: %s, %d -> %d bytes, %d attempts", file.Name, outcome, res.OriginalSize, res.FinalSize, len(res.Attempts))
	return res, nil
}
