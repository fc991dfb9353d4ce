// Package imagecompress shrinks oversized images until they fit a byte
// budget. Quality is lowered first; pixel dimensions are reduced only once
// quality has reached its floor.
package imagecompress

import (
	"context"
	"image"
	"math"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const traceName = "imagecompress"

// Compressor runs the adaptive downscale loop. It holds no per-call state
// and is safe for concurrent use when its collaborators are.
type Compressor struct {
	decoder  Decoder
	scaler   Scaler
	encoders map[string]Encoder
}

// New returns a Compressor backed by the standard decoders, Catmull-Rom
// resampling and the JPEG and WebP encoders.
func New() *Compressor {
	return NewWith(NewImageDecoder(), NewDrawScaler(), NewJPEGEncoder(), NewWebPEncoder())
}

// NewWith -.
func NewWith(decoder Decoder, scaler Scaler, encoders ...Encoder) *Compressor {
	c := &Compressor{decoder: decoder, scaler: scaler, encoders: make(map[string]Encoder, len(encoders))}
	for _, enc := range encoders {
		c.encoders[enc.MIMEType()] = enc
	}
	return c
}

type blob struct {
	mimeType string
	data     []byte
}

// Compress returns file unchanged when it already fits opts.MaxSizeBytes or
// is not a JPEG, PNG or WebP image. Otherwise it re-encodes at most
// opts.MaxAttempts times. When no attempt fits, the result carries the
// smallest blob produced rather than the last one; ties go to the later
// attempt. Only a decode failure, including a source larger than
// opts.MaxPixels, is returned as an error.
func (c *Compressor) Compress(ctx context.Context, file *File, opts Options) (*Result, error) {
	if file == nil {
		return nil, errors.Wrap(ErrInvalidOptions, "nil file")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	_, span := otel.Tracer(traceName).Start(ctx, "Compress")
	defer span.End()

	span.SetAttributes(attribute.String("name", file.Name))
	span.SetAttributes(attribute.String("type", file.Type))
	span.SetAttributes(attribute.Int64("size", file.Size()))
	span.SetAttributes(attribute.Int64("max_size", opts.MaxSizeBytes))

	if file.Size() <= opts.MaxSizeBytes {
		return unchanged(file, true, nil), nil
	}

	srcType := NormalizeType(file.Type)
	if !supportedTypes[srcType] {
		span.AddEvent("unsupported type")
		return unchanged(file, false, nil), nil
	}

	// A header that cannot be read is left to the decoder to report.
	if cfg, cerr := decodeConfig(file.Data, srcType); cerr == nil {
		if err := checkPixels(cfg.Width, cfg.Height, opts.MaxPixels); err != nil {
			span.RecordError(err)
			return nil, &DecodeError{Name: file.Name, Type: srcType, Err: err}
		}
	}

	src, err := c.decoder.Decode(file.Data, srcType)
	if err == nil && src.Bounds().Empty() {
		err = errors.New("image has no pixels")
	}
	if err == nil {
		err = checkPixels(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxPixels)
	}
	if err != nil {
		span.RecordError(err)
		return nil, &DecodeError{Name: file.Name, Type: srcType, Err: err}
	}

	b := src.Bounds()
	width, height := fitWithin(b.Dx(), b.Dy(), opts.MaxDimension)
	outType := outputType(srcType, opts.PreferWebP)
	quality := opts.InitialQuality

	var (
		attempts []Attempt
		best     *blob
	)

	for i := 0; i < opts.MaxAttempts; i++ {
		canvas := c.scaler.Scale(src, width, height)
		out, ok := c.encode(canvas, outType, quality)

		attempt := Attempt{Width: width, Height: height, Quality: quality, Failed: !ok}
		if ok {
			attempt.Type = out.mimeType
			attempt.Size = int64(len(out.data))
		}
		attempts = append(attempts, attempt)
		addAttemptEvent(span, attempt)

		if !ok {
			break
		}

		if best == nil || len(out.data) <= len(best.data) {
			best = &out
		}

		if int64(len(out.data)) <= opts.MaxSizeBytes {
			return compressed(file, out, opts.MaxSizeBytes, attempts), nil
		}

		if quality > opts.MinQuality {
			quality = math.Max(quality-opts.QualityStep, opts.MinQuality)
		} else {
			width, height = shrink(width), shrink(height)
			quality = opts.InitialQuality
		}
	}

	if best == nil {
		return unchanged(file, false, attempts), nil
	}

	return compressed(file, *best, opts.MaxSizeBytes, attempts), nil
}

// encode tries mimeType first and falls back to JPEG once.
func (c *Compressor) encode(img image.Image, mimeType string, quality float64) (blob, bool) {
	data, err := c.encodeAs(img, mimeType, quality)
	if err == nil {
		return blob{mimeType: mimeType, data: data}, true
	}
	if mimeType == MIMEJPEG {
		return blob{}, false
	}

	data, err = c.encodeAs(img, MIMEJPEG, quality)
	if err != nil {
		return blob{}, false
	}
	return blob{mimeType: MIMEJPEG, data: data}, true
}

func (c *Compressor) encodeAs(img image.Image, mimeType string, quality float64) ([]byte, error) {
	enc, ok := c.encoders[mimeType]
	if !ok {
		return nil, errors.Errorf("no encoder for %s", mimeType)
	}

	data, err := enc.Encode(img, quality)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.Errorf("%s encoder produced no data", mimeType)
	}
	return data, nil
}

func unchanged(file *File, meetsLimit bool, attempts []Attempt) *Result {
	return &Result{
		File:         file,
		MeetsLimit:   meetsLimit,
		OriginalSize: file.Size(),
		FinalSize:    file.Size(),
		Attempts:     attempts,
	}
}

func compressed(file *File, out blob, maxSize int64, attempts []Attempt) *Result {
	f := &File{
		Name:         RenameFor(file.Name, out.mimeType),
		Type:         out.mimeType,
		LastModified: file.LastModified,
		Data:         out.data,
	}

	return &Result{
		File:          f,
		WasCompressed: true,
		MeetsLimit:    f.Size() <= maxSize,
		OriginalSize:  file.Size(),
		FinalSize:     f.Size(),
		Attempts:      attempts,
	}
}

func outputType(srcType string, preferWebP bool) string {
	switch {
	case srcType == MIMEPNG && preferWebP:
		return MIMEWebP
	case srcType == MIMEWebP:
		return MIMEWebP
	default:
		return MIMEJPEG
	}
}

// fitWithin scales w x h down so the longest edge equals maxDim.
func fitWithin(w, h, maxDim int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return w, h
	}

	scale := float64(maxDim) / float64(longest)
	return atLeastOne(int(math.Round(float64(w) * scale))), atLeastOne(int(math.Round(float64(h) * scale)))
}

func checkPixels(w, h int, maxPixels int64) error {
	if int64(w)*int64(h) > maxPixels {
		return errors.Wrapf(ErrTooManyPixels, "%dx%d exceeds %d pixels", w, h, maxPixels)
	}
	return nil
}

func shrink(n int) int {
	return atLeastOne(int(math.Floor(float64(n) * shrinkFactor)))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func addAttemptEvent(span trace.Span, a Attempt) {
	span.AddEvent("attempt", trace.WithAttributes(
		attribute.Int("width", a.Width),
		attribute.Int("height", a.Height),
		attribute.Float64("quality", a.Quality),
		attribute.String("type", a.Type),
		attribute.Int64("size", a.Size),
		attribute.Bool("failed", a.Failed),
	))
}
