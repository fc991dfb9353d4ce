package archive

import (
	"archive/tar"
	"context"
	"io"
	"path"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type TarArchiver struct {
	limits Limits
}

func NewTarArchiver(limits Limits) *TarArchiver {
	return &TarArchiver{limits: limits.WithDefaults()}
}

func (ta *TarArchiver) Extension() string {
	return ".tar"
}

func (ta *TarArchiver) Pack(ctx context.Context, entries []Entry, w io.Writer) error {
	_, span := otel.Tracer(traceName).Start(ctx, "pack - tar")
	defer span.End()

	tw := tar.NewWriter(w)
	if err := writeEntries(tw, entries); err != nil {
		return err
	}
	return tw.Close()
}

func (ta *TarArchiver) Unpack(ctx context.Context, r io.Reader) ([]Entry, error) {
	_, span := otel.Tracer(traceName).Start(ctx, "unpack - tar")
	defer span.End()

	entries, err := readEntries(tar.NewReader(r), ta.limits)
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, err
}

func writeEntries(tw *tar.Writer, entries []Entry) error {
	for _, e := range entries {
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     e.Name,
			Mode:     int64(0644),
			Size:     int64(len(e.Body)),
			ModTime:  e.ModTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(e.Body); err != nil {
			return err
		}
	}
	return nil
}

// readEntries returns regular files only; directories, links and entries
// escaping the archive root are skipped.
func readEntries(tr *tar.Reader, limits Limits) ([]Entry, error) {
	var (
		entries []Entry
		total   int64
	)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "/"))
		if name == "." || name == ".." || strings.HasPrefix(name, "../") {
			continue
		}

		if len(entries) == limits.MaxEntries {
			return nil, ErrTooManyEntries
		}
		if hdr.Size > limits.MaxEntryBytes || total+hdr.Size > limits.MaxTotalBytes {
			return nil, ErrTooLarge
		}

		body, err := io.ReadAll(io.LimitReader(tr, limits.MaxEntryBytes+1))
		if err != nil {
			return nil, err
		}
		total += int64(len(body))
		if int64(len(body)) > limits.MaxEntryBytes || total > limits.MaxTotalBytes {
			return nil, ErrTooLarge
		}
		entries = append(entries, Entry{Name: name, ModTime: hdr.ModTime, Body: body})
	}
	return entries, nil
}
