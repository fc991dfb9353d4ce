package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type TarGzArchiver struct {
	limits Limits
}

func NewTarGzArchiver(limits Limits) *TarGzArchiver {
	return &TarGzArchiver{limits: limits.WithDefaults()}
}

func (gz *TarGzArchiver) Extension() string {
	return ".tar.gz"
}

func (gz *TarGzArchiver) Pack(ctx context.Context, entries []Entry, w io.Writer) error {
	_, span := otel.Tracer(traceName).Start(ctx, "pack - tar gz")
	defer span.End()

	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)
	if err := writeEntries(tw, entries); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func (gz *TarGzArchiver) Unpack(ctx context.Context, r io.Reader) ([]Entry, error) {
	_, span := otel.Tracer(traceName).Start(ctx, "unpack - tar gz")
	defer span.End()

	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	entries, err := readEntries(tar.NewReader(gr), gz.limits)
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, err
}
