package imagecompress

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"

	// Register decoders for standard formats.
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decoder turns encoded bytes into a drawable image.
type Decoder interface {
	Decode(data []byte, mimeType string) (image.Image, error)
}

// Scaler renders src into a new image of the given size.
type Scaler interface {
	Scale(src image.Image, width, height int) image.Image
}

// Encoder encodes an image to one output format.
type Encoder interface {
	MIMEType() string
	// Encode converts the image to bytes at quality in (0, 1].
	Encode(img image.Image, quality float64) ([]byte, error)
}

// ImageDecoder decodes through the registered image formats and retries
// WebP data with libwebp.
type ImageDecoder struct{}

func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

func (d *ImageDecoder) Decode(data []byte, mimeType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	// x/image/webp does not cover every VP8L/VP8X variant.
	if NormalizeType(mimeType) == MIMEWebP {
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return wimg, nil
		}
	}

	return nil, err
}

// decodeConfig reads the dimensions from the image header without
// decoding pixel data.
func decodeConfig(data []byte, mimeType string) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, nil
	}

	if NormalizeType(mimeType) == MIMEWebP {
		if wcfg, werr := webp.DecodeConfig(bytes.NewReader(data)); werr == nil {
			return wcfg, nil
		}
	}

	return image.Config{}, err
}

// DrawScaler resamples with an x/image/draw interpolator.
type DrawScaler struct {
	Interpolator draw.Interpolator
}

func NewDrawScaler() *DrawScaler {
	return &DrawScaler{Interpolator: draw.CatmullRom}
}

func (s *DrawScaler) Scale(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	s.Interpolator.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

// JPEGEncoder -.
type JPEGEncoder struct{}

func NewJPEGEncoder() *JPEGEncoder {
	return &JPEGEncoder{}
}

func (e *JPEGEncoder) MIMEType() string { return MIMEJPEG }

func (e *JPEGEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: percent(quality)}); err != nil {
		return nil, errors.Wrap(err, "jpeg.Encode")
	}
	return buf.Bytes(), nil
}

// WebPEncoder encodes lossy WebP through libwebp.
type WebPEncoder struct{}

func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{}
}

func (e *WebPEncoder) MIMEType() string { return MIMEWebP }

func (e *WebPEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(percent(quality))}); err != nil {
		return nil, errors.Wrap(err, "webp.Encode")
	}
	return buf.Bytes(), nil
}

func percent(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
