package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"image_compression/pkg/imagecompress"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		res  *imagecompress.Result
		err  error
		want string
	}{
		{"error", nil, errors.New("decode"), OutcomeError},
		{"fast path", &imagecompress.Result{MeetsLimit: true}, nil, OutcomeUnchanged},
		{"unsupported", &imagecompress.Result{}, nil, OutcomeUnsupported},
		{"compressed", &imagecompress.Result{WasCompressed: true, MeetsLimit: true}, nil, OutcomeCompressed},
		{"over limit", &imagecompress.Result{WasCompressed: true}, nil, OutcomeOverLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.res, tt.err))
		})
	}
}

func TestObserveCompression(t *testing.T) {
	before := testutil.ToFloat64(results.WithLabelValues(OutcomeCompressed))
	savedBefore := testutil.ToFloat64(bytesSaved)

	res := &imagecompress.Result{WasCompressed: true, MeetsLimit: true, OriginalSize: 1000, FinalSize: 400}
	outcome := ObserveCompression(res, nil, 50*time.Millisecond)

	assert.Equal(t, OutcomeCompressed, outcome)
	assert.Equal(t, before+1, testutil.ToFloat64(results.WithLabelValues(OutcomeCompressed)))
	assert.Equal(t, savedBefore+600, testutil.ToFloat64(bytesSaved))
}
