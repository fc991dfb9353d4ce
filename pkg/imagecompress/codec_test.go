package imagecompress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noiseImage(width, height int, seed int64) *image.RGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func TestCompressor_RealJPEG(t *testing.T) {
	data := encodeJPEG(t, noiseImage(300, 200, 1), 100)
	file := &File{Name: "noise.jpeg", Type: MIMEJPEG, Data: data}
	budget := int64(40_000)
	require.Greater(t, file.Size(), budget)

	res, err := New().Compress(context.Background(), file, NewOptions(budget, MaxDimension(100)))
	require.NoError(t, err)

	assert.True(t, res.WasCompressed)
	assert.True(t, res.MeetsLimit)
	assert.LessOrEqual(t, res.FinalSize, budget)
	assert.Equal(t, MIMEJPEG, res.File.Type)

	img, err := jpeg.Decode(bytes.NewReader(res.File.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 67, img.Bounds().Dy())
}

func TestCompressor_RealPNGBecomesWebP(t *testing.T) {
	data := encodePNG(t, noiseImage(256, 256, 2))
	file := &File{Name: "noise.png", Type: MIMEPNG, Data: data}
	budget := int64(20_000)
	require.Greater(t, file.Size(), budget)

	res, err := New().Compress(context.Background(), file, NewOptions(budget, MaxDimension(64)))
	require.NoError(t, err)

	assert.True(t, res.MeetsLimit)
	assert.Equal(t, MIMEWebP, res.File.Type)
	assert.Equal(t, "noise.webp", res.File.Name)

	img, err := NewImageDecoder().Decode(res.File.Data, MIMEWebP)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestCompressor_PNGHeaderOverPixelLimitIsNotDecoded(t *testing.T) {
	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 400, 300)))
	file := &File{Name: "flat.png", Type: MIMEPNG, Data: data}
	dec := &fakeDecoder{w: 400, h: 300}
	c := NewWith(dec, fakeScaler{}, &fakeEncoder{mimeType: MIMEJPEG, bytesPerPixel: 0.001})

	res, err := c.Compress(context.Background(), file, NewOptions(file.Size()-1, MaxPixels(100_000)))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrTooManyPixels)
	assert.Zero(t, dec.calls)
}

func TestCompressor_LargeFlatPNGRejectedByDefault(t *testing.T) {
	// Compresses to a few hundred KB but declares 50.4 million pixels.
	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 7100, 7100)))
	file := &File{Name: "flat.png", Type: MIMEPNG, Data: data}

	_, err := New().Compress(context.Background(), file, NewOptions(file.Size()-1))
	assert.ErrorIs(t, err, ErrTooManyPixels)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "flat.png", decodeErr.Name)
}

func TestCompressor_RealUnreachableBudget(t *testing.T) {
	data := encodePNG(t, noiseImage(128, 128, 3))
	file := &File{Name: "noise.png", Type: MIMEPNG, Data: data}

	res, err := New().Compress(context.Background(), file, NewOptions(100))
	require.NoError(t, err)

	assert.True(t, res.WasCompressed)
	assert.False(t, res.MeetsLimit)
	assert.Len(t, res.Attempts, DefaultMaxAttempts)
	assert.Equal(t, int64(len(res.File.Data)), res.FinalSize)
	assert.Greater(t, res.FinalSize, int64(100))
}

func TestCompressor_RealCorruptData(t *testing.T) {
	file := &File{Name: "broken.jpg", Type: MIMEJPEG, Data: []byte("definitely not a jpeg file")}

	_, err := New().Compress(context.Background(), file, NewOptions(5))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestImageDecoder_Empty(t *testing.T) {
	_, err := NewImageDecoder().Decode(nil, MIMEPNG)
	assert.Error(t, err)
}

func TestDrawScaler_Scale(t *testing.T) {
	src := noiseImage(40, 20, 4)
	s := NewDrawScaler()

	out := s.Scale(src, 10, 5)
	assert.Equal(t, image.Rect(0, 0, 10, 5), out.Bounds())

	same := s.Scale(src, 40, 20)
	assert.Equal(t, src.At(7, 3), same.At(7, 3))
}

func TestJPEGEncoder_QualityAffectsSize(t *testing.T) {
	img := noiseImage(64, 64, 5)
	enc := NewJPEGEncoder()

	high, err := enc.Encode(img, 0.95)
	require.NoError(t, err)
	low, err := enc.Encode(img, 0.3)
	require.NoError(t, err)

	assert.Greater(t, len(high), len(low))
	assert.Equal(t, MIMEJPEG, enc.MIMEType())
}

func TestWebPEncoder_Encode(t *testing.T) {
	enc := NewWebPEncoder()

	data, err := enc.Encode(noiseImage(32, 32, 6), 0.8)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 86, percent(0.86))
	assert.Equal(t, 1, percent(0))
	assert.Equal(t, 100, percent(1.2))
}
