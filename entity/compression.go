package entity

import (
	"context"
	"errors"
	"time"

	"image_compression/pkg/archive"
	"image_compression/pkg/imagecompress"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

var ErrJobNotFound = errors.New("compression job not found")

// ImageCompressor compresses in-memory uploads.
type ImageCompressor interface {
	CompressFile(ctx context.Context, file *imagecompress.File, opts imagecompress.Options) (*imagecompress.Result, error)
	CompressEntries(ctx context.Context, entries []archive.Entry, opts imagecompress.Options) ([]archive.Entry, []ArchiveItem)
	DefaultOptions() imagecompress.Options
}

// ArchiveItem reports the outcome for one file of an uploaded archive.
type ArchiveItem struct {
	Name          string `json:"name"`
	ResultName    string `json:"result_name"`
	Type          string `json:"type"`
	WasCompressed bool   `json:"was_compressed"`
	MeetsLimit    bool   `json:"meets_limit"`
	OriginalSize  int64  `json:"original_size"`
	FinalSize     int64  `json:"final_size"`
	Error         string `json:"error,omitempty"`
}

// CompressionPlanner queues compression of stored objects and reports on them.
type CompressionPlanner interface {
	PlanCompression(ctx context.Context, req CompressionRequest) (string, error)
	GetCompression(ctx context.Context, jobID string, wait time.Duration) (CompressionResponse, error)
}

type CompressionRequest struct {
	JobID        string `json:"job_id"`
	Bucket       string `json:"bucket"`
	Key          string `json:"key"`
	MaxSizeBytes int64  `json:"max_size_bytes,omitempty"`
}

type CompressionResponse struct {
	JobID         string `json:"job_id"`
	Bucket        string `json:"bucket"`
	Key           string `json:"key"`
	MaxSizeBytes  int64  `json:"max_size_bytes,omitempty"`
	Status        string `json:"status"`
	ResultBucket  string `json:"result_bucket,omitempty"`
	ResultKey     string `json:"result_key,omitempty"`
	ResultType    string `json:"result_type,omitempty"`
	WasCompressed bool   `json:"was_compressed"`
	MeetsLimit    bool   `json:"meets_limit"`
	OriginalSize  int64  `json:"original_size"`
	FinalSize     int64  `json:"final_size"`
	Error         string `json:"error,omitempty"`
}

// Finished reports whether the worker has replied.
func (r CompressionResponse) Finished() bool {
	return r.Status == StatusDone || r.Status == StatusFailed
}
