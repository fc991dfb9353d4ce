// Package archive packs and unpacks tar and tar.gz bundles of files.
package archive

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const traceName = "archive"

const (
	DefaultMaxEntries    = 1000
	DefaultMaxEntryBytes = 64 << 20
	DefaultMaxTotalBytes = 256 << 20
)

var (
	ErrUnknownFormat  = errors.New("archive: unknown format")
	ErrTooManyEntries = errors.New("archive: too many entries")
	ErrTooLarge       = errors.New("archive: contents too large")
)

// Limits bounds what Unpack holds in memory. Zero fields take their
// defaults.
type Limits struct {
	MaxEntries    int
	MaxEntryBytes int64
	MaxTotalBytes int64
}

func (l Limits) WithDefaults() Limits {
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if l.MaxTotalBytes <= 0 {
		l.MaxTotalBytes = DefaultMaxTotalBytes
	}
	return l
}

// Entry is one regular file in an archive.
type Entry struct {
	Name    string
	ModTime time.Time
	Body    []byte
}

type Archiver interface {
	Pack(ctx context.Context, entries []Entry, w io.Writer) error
	Unpack(ctx context.Context, r io.Reader) ([]Entry, error)
	Extension() string
}

// Detect picks the archiver matching the leading bytes of data.
func Detect(data []byte, limits Limits) (Archiver, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/gzip"):
		return NewTarGzArchiver(limits), nil
	case mt.Is("application/x-tar"):
		return NewTarArchiver(limits), nil
	}
	return nil, ErrUnknownFormat
}
