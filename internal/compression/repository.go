package compression

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"image_compression/entity"
	"image_compression/pkg/logger"
)

var ErrNotFound = errors.New("compression record not found")

// CompressionRecord is the persisted outcome of one compression job.
type CompressionRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Bucket        string `gorm:"size:63;index:idx_compression_object"`
	Key           string `gorm:"column:object_key;size:700;index:idx_compression_object"`
	MaxSizeBytes  int64
	Status        string `gorm:"size:16;index"`
	SourceType    string `gorm:"size:64"`
	ResultBucket  string `gorm:"size:63"`
	ResultKey     string `gorm:"size:700"`
	ResultType    string `gorm:"size:64"`
	WasCompressed bool
	MeetsLimit    bool
	OriginalSize  int64
	FinalSize     int64
	Attempts      int
	Error         string `gorm:"size:1024"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CompressionRecord) TableName() string {
	return "compression_records"
}

// Response -.
func (r *CompressionRecord) Response() entity.CompressionResponse {
	return entity.CompressionResponse{
		JobID:         r.ID,
		Bucket:        r.Bucket,
		Key:           r.Key,
		MaxSizeBytes:  r.MaxSizeBytes,
		Status:        r.Status,
		ResultBucket:  r.ResultBucket,
		ResultKey:     r.ResultKey,
		ResultType:    r.ResultType,
		WasCompressed: r.WasCompressed,
		MeetsLimit:    r.MeetsLimit,
		OriginalSize:  r.OriginalSize,
		FinalSize:     r.FinalSize,
		Error:         r.Error,
	}
}

type CompressionRepository struct {
	db *gorm.DB
	l  logger.Interface
}

func NewCompressionRepository(db *gorm.DB, l logger.Interface) *CompressionRepository {
	return &CompressionRepository{db: db, l: l}
}

func (cr *CompressionRepository) Migrate(ctx context.Context) error {
	return cr.db.WithContext(ctx).AutoMigrate(&CompressionRecord{})
}

// SaveCompression inserts rec or overwrites the row with the same ID.
func (cr *CompressionRepository) SaveCompression(ctx context.Context, rec *CompressionRecord) error {
	return cr.db.WithContext(ctx).Save(rec).Error
}

func (cr *CompressionRepository) GetCompression(ctx context.Context, id string) (*CompressionRecord, error) {
	var rec CompressionRecord
	err := cr.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindCompressed returns the latest finished record for the same object
// and byte budget.
func (cr *CompressionRepository) FindCompressed(ctx context.Context, bucket, key string, maxSizeBytes int64) (*CompressionRecord, bool, error) {
	var rec CompressionRecord
	err := cr.db.WithContext(ctx).
		Where("bucket = ? AND object_key = ? AND max_size_bytes = ? AND status = ?", bucket, key, maxSizeBytes, entity.StatusDone).
		Order("updated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}
