package s3repo

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/config"
)

const traceName = "S3-Repo"

var ErrEmptyObject = errors.New("zero bytes written to memory")

type S3Repository struct {
	sess *s3.Client
}

// NewS3Repository connects to an S3 compatible endpoint (MinIO in
// development) with static credentials.
func NewS3Repository(cfg config.S3) *S3Repository {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...any) (aws.Endpoint, error) {
		return aws.Endpoint{
			PartitionID:       "aws",
			SigningRegion:     cfg.Region,
			URL:               cfg.Endpoint,
			HostnameImmutable: true,
		}, nil
	})

	awsCfg := aws.Config{
		Region:                      cfg.Region,
		EndpointResolverWithOptions: resolver,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}

	return &S3Repository{s3.NewFromConfig(awsCfg)}
}

func (s3Repo *S3Repository) DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "DownloadObject")
	defer span.End()

	downloader := manager.NewDownloader(s3Repo.sess)

	var buffer []byte
	bw := manager.NewWriteAtBuffer(buffer)

	numBytes, err := downloader.Download(ctx, bw, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int64("bytes", numBytes))

	if numBytes < 1 {
		return ErrEmptyObject
	}

	if _, err := w.Write(bw.Bytes()); err != nil {
		return err
	}

	return nil
}

func (s3Repo *S3Repository) UploadObject(ctx context.Context, bucket string, key string, contentType string, r io.Reader) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "UploadObject")
	defer span.End()

	uploader := manager.NewUploader(s3Repo.sess)

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        r,
	})
	if err != nil {
		return err
	}

	return nil
}
