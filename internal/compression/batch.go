package compression

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/entity"
	"image_compression/pkg/archive"
	"image_compression/pkg/imagecompress"
)

// errNoEncoding describes a supported image whose every encode failed.
const errNoEncoding = "no encoding attempt succeeded"

// CompressEntries compresses every entry with the same options. Entries
// that fail or are not images are passed through unchanged, so the
// returned slice always has one entry per input.
func (s *ImageService) CompressEntries(ctx context.Context, entries []archive.Entry, opts imagecompress.Options) ([]archive.Entry, []entity.ArchiveItem) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "CompressEntries")
	defer span.End()
	span.SetAttributes(attribute.Int("entries", len(entries)))

	out := make([]archive.Entry, 0, len(entries))
	items := make([]entity.ArchiveItem, 0, len(entries))
	used := make(map[string]bool, len(entries))
	for _, e := range entries {
		used[e.Name] = true
	}

	for _, e := range entries {
		file := &imagecompress.File{
			Name:         e.Name,
			Type:         mimetype.Detect(e.Body).String(),
			LastModified: e.ModTime,
			Data:         e.Body,
		}
		item := entity.ArchiveItem{
			Name:         e.Name,
			ResultName:   e.Name,
			Type:         imagecompress.NormalizeType(file.Type),
			OriginalSize: file.Size(),
			FinalSize:    file.Size(),
		}

		res, err := s.CompressFile(ctx, file, opts)
		switch {
		case err != nil:
			item.Error = err.Error()
			out = append(out, e)
		case !res.WasCompressed:
			item.MeetsLimit = res.MeetsLimit
			switch {
			case res.MeetsLimit:
			case !imagecompress.IsSupported(file.Type):
				item.Error = fmt.Sprintf("unsupported image type %q", item.Type)
			default:
				item.Error = errNoEncoding
			}
			out = append(out, e)
		default:
			name := imagecompress.RenameFor(e.Name, res.File.Type)
			if name != e.Name && used[name] {
				name = e.Name
			}
			used[name] = true

			item.ResultName = name
			item.Type = res.File.Type
			item.WasCompressed = true
			item.MeetsLimit = res.MeetsLimit
			item.FinalSize = res.FinalSize
			out = append(out, archive.Entry{Name: name, ModTime: e.ModTime, Body: res.File.Data})
		}
		items = append(items, item)
	}

	return out, items
}
