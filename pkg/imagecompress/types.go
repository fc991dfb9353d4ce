package imagecompress

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

var (
	ErrInvalidOptions = errors.New("invalid compression options")
	ErrDecode         = errors.New("unable to decode image")
	ErrTooManyPixels  = errors.New("image has too many pixels")
)

var supportedTypes = map[string]bool{
	MIMEJPEG: true,
	MIMEPNG:  true,
	MIMEWebP: true,
}

var extensions = map[string]string{
	MIMEJPEG: ".jpg",
	MIMEPNG:  ".png",
	MIMEWebP: ".webp",
}

// File is an image blob with its declared MIME type.
type File struct {
	Name         string
	Type         string
	LastModified time.Time
	Data         []byte
}

// Size -.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// Attempt describes one render and encode pass.
type Attempt struct {
	Width   int
	Height  int
	Quality float64
	// Type is the MIME type actually produced, which differs from the
	// requested one after a JPEG fallback.
	Type   string
	Size   int64
	Failed bool
}

// Result -.
type Result struct {
	File          *File
	WasCompressed bool
	MeetsLimit    bool
	OriginalSize  int64
	FinalSize     int64
	Attempts      []Attempt
}

// DecodeError reports image data that could not be decoded.
type DecodeError struct {
	Name string
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.Name, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NormalizeType lower-cases a MIME type and strips its parameters.
func NormalizeType(mimeType string) string {
	t := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// IsSupported reports whether mimeType can be re-encoded.
func IsSupported(mimeType string) bool {
	return supportedTypes[NormalizeType(mimeType)]
}

// Extension returns the file extension used for a supported MIME type.
func Extension(mimeType string) string {
	return extensions[NormalizeType(mimeType)]
}

// RenameFor swaps the extension of name to match mimeType.
func RenameFor(name, mimeType string) string {
	dir, base := path.Split(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" {
		base = "image"
	}
	return dir + base + Extension(mimeType)
}
