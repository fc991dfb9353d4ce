package compression

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"image_compression/entity"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"
)

const testBudget = 40_000

type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	downloads   int
	downloadErr error
	uploadErr   error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
}

func (m *memStorage) get(bucket, key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, m.types[bucket+"/"+key], ok
}

func (m *memStorage) DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) error {
	m.mu.Lock()
	m.downloads++
	data, ok := m.objects[bucket+"/"+key]
	m.mu.Unlock()

	if m.downloadErr != nil {
		return m.downloadErr
	}
	if !ok {
		return notFoundError()
	}
	_, err := w.Write(data)
	return err
}

func (m *memStorage) UploadObject(ctx context.Context, bucket string, key string, contentType string, r io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	m.types[bucket+"/"+key] = contentType
	return nil
}

func notFoundError() error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
			Err:      errors.New("NoSuchKey"),
		},
	}
}

func testLogger() logger.Interface {
	return logger.NewWithWriter("error", io.Discard)
}

func newTestRepository(t *testing.T) *CompressionRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo := NewCompressionRepository(db, testLogger())
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func newTestUsecase(t *testing.T, storage *memStorage) *CompressionUsecase {
	t.Helper()
	images := NewImageService(imagecompress.New(), imagecompress.NewOptions(testBudget, imagecompress.MaxDimension(100)), testLogger())
	return NewCompressionUsecase(storage, newTestRepository(t), images, "-compressed", testLogger())
}

func noiseJPEG(t *testing.T, width, height, quality int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(int64(width * height)))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rnd.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func TestDoCompression_UploadsCompressedImage(t *testing.T) {
	storage := newMemStorage()
	source := noiseJPEG(t, 300, 200, 100)
	require.Greater(t, len(source), testBudget)
	storage.put("photos", "shoes/red.jpeg", source)

	uc := newTestUsecase(t, storage)
	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{JobID: "job-1", Bucket: "photos", Key: "/shoes/red.jpeg"})
	require.NoError(t, err)
	assert.False(t, retry)

	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, entity.StatusDone, resp.Status)
	assert.True(t, resp.WasCompressed)
	assert.True(t, resp.MeetsLimit)
	assert.Equal(t, "photos-compressed", resp.ResultBucket)
	assert.Equal(t, "shoes/red.jpg", resp.ResultKey)
	assert.Equal(t, imagecompress.MIMEJPEG, resp.ResultType)
	assert.Equal(t, int64(len(source)), resp.OriginalSize)
	assert.LessOrEqual(t, resp.FinalSize, int64(testBudget))

	uploaded, contentType, ok := storage.get("photos-compressed", "shoes/red.jpg")
	require.True(t, ok)
	assert.Equal(t, resp.FinalSize, int64(len(uploaded)))
	assert.Equal(t, imagecompress.MIMEJPEG, contentType)

	stored, err := uc.GetCompression(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, resp, stored)
}

func TestDoCompression_ReusesFinishedRecord(t *testing.T) {
	storage := newMemStorage()
	storage.put("photos", "a.jpg", noiseJPEG(t, 300, 200, 100))
	uc := newTestUsecase(t, storage)

	first, _, err := uc.DoCompression(context.Background(), entity.CompressionRequest{JobID: "job-1", Bucket: "photos", Key: "a.jpg"})
	require.NoError(t, err)
	require.Equal(t, 1, storage.downloads)

	second, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{JobID: "job-2", Bucket: "photos", Key: "a.jpg"})
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, 1, storage.downloads)
	assert.Equal(t, "job-2", second.JobID)
	assert.Equal(t, first.ResultKey, second.ResultKey)
	assert.Equal(t, first.FinalSize, second.FinalSize)
}

func TestDoCompression_SmallObjectIsLeftInPlace(t *testing.T) {
	storage := newMemStorage()
	small := noiseJPEG(t, 20, 20, 80)
	storage.put("photos", "tiny.jpg", small)
	uc := newTestUsecase(t, storage)

	resp, _, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "tiny.jpg"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, entity.StatusDone, resp.Status)
	assert.False(t, resp.WasCompressed)
	assert.True(t, resp.MeetsLimit)
	assert.Equal(t, "photos", resp.ResultBucket)
	assert.Equal(t, "tiny.jpg", resp.ResultKey)

	_, _, uploaded := storage.get("photos-compressed", "tiny.jpg")
	assert.False(t, uploaded)
}

func TestDoCompression_MissingObjectIsPermanent(t *testing.T) {
	uc := newTestUsecase(t, newMemStorage())

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{JobID: "job-404", Bucket: "photos", Key: "missing.jpg"})
	require.Error(t, err)
	assert.False(t, retry)
	assert.Equal(t, entity.StatusFailed, resp.Status)

	stored, err := uc.GetCompression(context.Background(), "job-404")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestDoCompression_TransientDownloadErrorIsRetried(t *testing.T) {
	storage := newMemStorage()
	storage.downloadErr = errors.New("connection reset")
	uc := newTestUsecase(t, storage)

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "a.jpg"})
	require.Error(t, err)
	assert.True(t, retry)
	assert.Equal(t, entity.StatusPending, resp.Status)
}

func TestDoCompression_CorruptImageIsPermanent(t *testing.T) {
	storage := newMemStorage()
	corrupt := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, testBudget*2)...)
	storage.put("photos", "broken.jpg", corrupt)
	uc := newTestUsecase(t, storage)

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "broken.jpg"})
	require.Error(t, err)
	assert.ErrorIs(t, err, imagecompress.ErrDecode)
	assert.False(t, retry)
	assert.Equal(t, entity.StatusFailed, resp.Status)
}

func TestDoCompression_UnsupportedTypeIsReported(t *testing.T) {
	storage := newMemStorage()
	frames := &gif.GIF{}
	for i := 0; i < 40; i++ {
		pal := image.NewPaletted(image.Rect(0, 0, 200, 200), []color.Color{color.Black, color.White})
		rnd := rand.New(rand.NewSource(int64(i)))
		for p := range pal.Pix {
			pal.Pix[p] = uint8(rnd.Intn(2))
		}
		frames.Image = append(frames.Image, pal)
		frames.Delay = append(frames.Delay, 1)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, frames))
	require.Greater(t, buf.Len(), testBudget)
	storage.put("photos", "anim.gif", buf.Bytes())
	uc := newTestUsecase(t, storage)

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "anim.gif"})
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, entity.StatusDone, resp.Status)
	assert.False(t, resp.WasCompressed)
	assert.False(t, resp.MeetsLimit)
	assert.Contains(t, resp.Error, "image/gif")
	assert.Empty(t, resp.ResultKey)
}

type brokenEncoder struct{}

func (brokenEncoder) MIMEType() string { return imagecompress.MIMEJPEG }

func (brokenEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	return nil, errors.New("encoder unavailable")
}

func TestDoCompression_EncodeFailureIsReported(t *testing.T) {
	storage := newMemStorage()
	storage.put("photos", "cat.jpg", noiseJPEG(t, 300, 200, 100))
	compressor := imagecompress.NewWith(imagecompress.NewImageDecoder(), imagecompress.NewDrawScaler(), brokenEncoder{})
	images := NewImageService(compressor, imagecompress.NewOptions(testBudget), testLogger())
	uc := NewCompressionUsecase(storage, newTestRepository(t), images, "-compressed", testLogger())

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "cat.jpg"})
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, entity.StatusDone, resp.Status)
	assert.False(t, resp.WasCompressed)
	assert.False(t, resp.MeetsLimit)
	assert.Equal(t, errNoEncoding, resp.Error)
	assert.NotContains(t, resp.Error, "unsupported")
	assert.Empty(t, resp.ResultKey)
}

func TestDoCompression_UploadErrorIsRetried(t *testing.T) {
	storage := newMemStorage()
	storage.put("photos", "a.jpg", noiseJPEG(t, 300, 200, 100))
	storage.uploadErr = errors.New("bucket unavailable")
	uc := newTestUsecase(t, storage)

	_, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "a.jpg"})
	require.Error(t, err)
	assert.True(t, retry)
}

func TestDoCompression_InvalidRequest(t *testing.T) {
	uc := newTestUsecase(t, newMemStorage())

	resp, retry, err := uc.DoCompression(context.Background(), entity.CompressionRequest{Bucket: "photos", Key: "/"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.False(t, retry)
	assert.Equal(t, entity.StatusFailed, resp.Status)
}

func TestRepository_GetCompressionNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetCompression(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindCompressedMatchesBudget(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCompression(ctx, &CompressionRecord{ID: "a", Bucket: "b", Key: "k.png", MaxSizeBytes: 100, Status: entity.StatusDone}))
	require.NoError(t, repo.SaveCompression(ctx, &CompressionRecord{ID: "b", Bucket: "b", Key: "k.png", MaxSizeBytes: 200, Status: entity.StatusPending}))

	rec, ok, err := repo.FindCompressed(ctx, "b", "k.png", 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", rec.ID)

	_, ok, err = repo.FindCompressed(ctx, "b", "k.png", 200)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_SaveOverwrites(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := &CompressionRecord{ID: "job", Bucket: "b", Key: "k.jpg", Status: entity.StatusPending}
	require.NoError(t, repo.SaveCompression(ctx, rec))

	rec.Status = entity.StatusDone
	rec.FinalSize = 42
	require.NoError(t, repo.SaveCompression(ctx, rec))

	got, err := repo.GetCompression(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, got.Status)
	assert.Equal(t, int64(42), got.FinalSize)
}
