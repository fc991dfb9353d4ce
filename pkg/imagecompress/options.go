package imagecompress

import "github.com/pkg/errors"

const (
	DefaultMaxDimension   = 2048
	DefaultInitialQuality = 0.86
	DefaultMinQuality     = 0.6
	DefaultQualityStep    = 0.08
	DefaultMaxAttempts    = 8
	DefaultMaxPixels      = 50_000_000

	// Each dimension keeps 85% once quality has reached the floor.
	shrinkFactor = 0.85
)

// Options controls a single Compress call. Zero numeric fields take their
// defaults; PreferWebP has no zero default, so build Options with
// NewOptions to get the documented behaviour.
type Options struct {
	MaxSizeBytes   int64
	MaxDimension   int
	InitialQuality float64
	MinQuality     float64
	QualityStep    float64
	MaxAttempts    int
	// MaxPixels bounds the declared width*height of a source image.
	MaxPixels int64
	// PreferWebP re-encodes PNG sources as WebP instead of JPEG.
	PreferWebP bool
}

// Option -.
type Option func(*Options)

// NewOptions returns the default options for the given byte budget.
func NewOptions(maxSizeBytes int64, opts ...Option) Options {
	o := Options{
		MaxSizeBytes:   maxSizeBytes,
		MaxDimension:   DefaultMaxDimension,
		InitialQuality: DefaultInitialQuality,
		MinQuality:     DefaultMinQuality,
		QualityStep:    DefaultQualityStep,
		MaxAttempts:    DefaultMaxAttempts,
		MaxPixels:      DefaultMaxPixels,
		PreferWebP:     true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// MaxDimension -.
func MaxDimension(px int) Option {
	return func(o *Options) {
		o.MaxDimension = px
	}
}

// Quality sets the starting quality, the floor and the decrement step.
func Quality(initial, floor, step float64) Option {
	return func(o *Options) {
		o.InitialQuality = initial
		o.MinQuality = floor
		o.QualityStep = step
	}
}

// MaxAttempts -.
func MaxAttempts(n int) Option {
	return func(o *Options) {
		o.MaxAttempts = n
	}
}

// MaxPixels -.
func MaxPixels(n int64) Option {
	return func(o *Options) {
		o.MaxPixels = n
	}
}

// PreferWebP -.
func PreferWebP(prefer bool) Option {
	return func(o *Options) {
		o.PreferWebP = prefer
	}
}

func (o Options) withDefaults() Options {
	if o.MaxDimension == 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.InitialQuality == 0 {
		o.InitialQuality = DefaultInitialQuality
	}
	if o.MinQuality == 0 {
		o.MinQuality = DefaultMinQuality
	}
	if o.QualityStep == 0 {
		o.QualityStep = DefaultQualityStep
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxPixels == 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

func (o Options) validate() error {
	switch {
	case o.MaxSizeBytes <= 0:
		return errors.Wrapf(ErrInvalidOptions, "max size must be positive, got %d", o.MaxSizeBytes)
	case o.MaxDimension < 1:
		return errors.Wrapf(ErrInvalidOptions, "max dimension must be positive, got %d", o.MaxDimension)
	case o.MaxAttempts < 1:
		return errors.Wrapf(ErrInvalidOptions, "max attempts must be positive, got %d", o.MaxAttempts)
	case o.MaxPixels < 1:
		return errors.Wrapf(ErrInvalidOptions, "max pixels must be positive, got %d", o.MaxPixels)
	case o.InitialQuality <= 0 || o.InitialQuality > 1:
		return errors.Wrapf(ErrInvalidOptions, "initial quality out of range: %v", o.InitialQuality)
	case o.MinQuality <= 0 || o.MinQuality > o.InitialQuality:
		return errors.Wrapf(ErrInvalidOptions, "quality floor out of range: %v", o.MinQuality)
	case o.QualityStep <= 0:
		return errors.Wrapf(ErrInvalidOptions, "quality step must be positive, got %v", o.QualityStep)
	}
	return nil
}
