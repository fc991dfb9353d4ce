package compression

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/entity"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"
)

const traceName = "compression"

var ErrInvalidRequest = errors.New("invalid compression request")

type CompressionUsecase struct {
	StorageRepo     entity.StorageRepository
	CompressionRepo *CompressionRepository
	images          entity.ImageCompressor
	resultSuffix    string
	l               logger.Interface
}

func NewCompressionUsecase(storage entity.StorageRepository, repo *CompressionRepository, images entity.ImageCompressor, resultSuffix string, l logger.Interface) *CompressionUsecase {
	return &CompressionUsecase{
		StorageRepo:     storage,
		CompressionRepo: repo,
		images:          images,
		resultSuffix:    resultSuffix,
		l:               l,
	}
}

// DoCompression downloads bucket/key, fits it into the request's byte
// budget and uploads the re-encoded image next to the result bucket.
// shouldRetry is true when the failure is transient.
func (c *CompressionUsecase) DoCompression(ctx context.Context, req entity.CompressionRequest) (resp entity.CompressionResponse, shouldRetry bool, err error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "DoCompression")
	defer span.End()

	req.Key = strings.TrimPrefix(req.Key, "/")
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	if req.MaxSizeBytes <= 0 {
		req.MaxSizeBytes = c.images.DefaultOptions().MaxSizeBytes
	}

	span.SetAttributes(attribute.String("job_id", req.JobID))
	span.SetAttributes(attribute.String("bucket", req.Bucket))
	span.SetAttributes(attribute.String("key", req.Key))

	rec := &CompressionRecord{
		ID:           req.JobID,
		Bucket:       req.Bucket,
		Key:          req.Key,
		MaxSizeBytes: req.MaxSizeBytes,
		Status:       entity.StatusPending,
	}

	if req.Bucket == "" || req.Key == "" {
		err = errors.Wrap(ErrInvalidRequest, "bucket and key are required")
		rec.Status = entity.StatusFailed
		rec.Error = err.Error()
		return rec.Response(), false, err
	}

	if prev, ok, ferr := c.CompressionRepo.FindCompressed(ctx, req.Bucket, req.Key, req.MaxSizeBytes); ferr != nil {
		c.l.Warn("compression - FindCompressed: %v", ferr)
	} else if ok {
		span.AddEvent("Found finished compression")
		resp = prev.Response()
		resp.JobID = req.JobID
		return resp, false, nil
	}

	if err := c.CompressionRepo.SaveCompression(ctx, rec); err != nil {
		return rec.Response(), true, errors.Wrap(err, "SaveCompression")
	}

	var source bytes.Buffer
	if err := c.StorageRepo.DownloadObject(ctx, req.Bucket, req.Key, &source); err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound {
			return c.fail(ctx, rec, err), false, err
		}
		return rec.Response(), true, errors.Wrap(err, "DownloadObject")
	}

	data := source.Bytes()
	file := &imagecompress.File{
		Name:         path.Base(req.Key),
		Type:         mimetype.Detect(data).String(),
		LastModified: time.Now(),
		Data:         data,
	}
	rec.SourceType = imagecompress.NormalizeType(file.Type)

	opts := c.images.DefaultOptions()
	opts.MaxSizeBytes = req.MaxSizeBytes

	res, err := c.images.CompressFile(ctx, file, opts)
	if err != nil {
		return c.fail(ctx, rec, err), false, err
	}

	rec.WasCompressed = res.WasCompressed
	rec.MeetsLimit = res.MeetsLimit
	rec.OriginalSize = res.OriginalSize
	rec.FinalSize = res.FinalSize
	rec.Attempts = len(res.Attempts)

	switch {
	case res.WasCompressed:
		resultBucket := req.Bucket + c.resultSuffix
		resultKey := imagecompress.RenameFor(req.Key, res.File.Type)
		if err := c.StorageRepo.UploadObject(ctx, resultBucket, resultKey, res.File.Type, bytes.NewReader(res.File.Data)); err != nil {
			return rec.Response(), true, errors.Wrap(err, "UploadObject")
		}
		rec.ResultBucket, rec.ResultKey, rec.ResultType = resultBucket, resultKey, res.File.Type
	case res.MeetsLimit:
		rec.ResultBucket, rec.ResultKey, rec.ResultType = req.Bucket, req.Key, rec.SourceType
	case !imagecompress.IsSupported(rec.SourceType):
		rec.Error = fmt.Sprintf("unsupported image type %q", rec.SourceType)
	default:
		rec.Error = errNoEncoding
	}

	rec.Status = entity.StatusDone
	if err := c.CompressionRepo.SaveCompression(ctx, rec); err != nil {
		return rec.Response(), true, errors.Wrap(err, "SaveCompression")
	}

	return rec.Response(), false, nil
}

// GetCompression -.
func (c *CompressionUsecase) GetCompression(ctx context.Context, jobID string) (entity.CompressionResponse, error) {
	rec, err := c.CompressionRepo.GetCompression(ctx, jobID)
	if err != nil {
		return entity.CompressionResponse{}, err
	}
	return rec.Response(), nil
}

func (c *CompressionUsecase) fail(ctx context.Context, rec *CompressionRecord, cause error) entity.CompressionResponse {
	rec.Status = entity.StatusFailed
	rec.Error = cause.Error()
	if err := c.CompressionRepo.SaveCompression(ctx, rec); err != nil {
		c.l.Error(fmt.Errorf("compression - fail - SaveCompression: %w", err))
	}
	return rec.Response()
}
