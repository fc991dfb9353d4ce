package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"image_compression/pkg/imagecompress"
)

const (
	OutcomeUnchanged   = "unchanged"
	OutcomeCompressed  = "compressed"
	OutcomeOverLimit   = "over_limit"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
)

var (
	results = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_compression_results_total",
		Help: "Compression calls by outcome.",
	}, []string{"outcome"})

	attempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_compression_attempts",
		Help:    "Encode attempts per compression call.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 12, 16},
	})

	duration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_compression_duration_seconds",
		Help:    "Wall time spent compressing one image.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	bytesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_compression_bytes_saved_total",
		Help: "Bytes removed by re-encoding.",
	})
)

// Outcome classifies a compression result.
func Outcome(res *imagecompress.Result, err error) string {
	switch {
	case err != nil || res == nil:
		return OutcomeError
	case !res.WasCompressed && res.MeetsLimit:
		return OutcomeUnchanged
	case !res.WasCompressed:
		return OutcomeUnsupported
	case res.MeetsLimit:
		return OutcomeCompressed
	default:
		return OutcomeOverLimit
	}
}

// ObserveCompression records one call and returns its outcome label.
func ObserveCompression(res *imagecompress.Result, err error, elapsed time.Duration) string {
	outcome := Outcome(res, err)
	results.WithLabelValues(outcome).Inc()
	duration.Observe(elapsed.Seconds())

	if res != nil {
		attempts.Observe(float64(len(res.Attempts)))
		if saved := res.OriginalSize - res.FinalSize; saved > 0 {
			bytesSaved.Add(float64(saved))
		}
	}
	return outcome
}
