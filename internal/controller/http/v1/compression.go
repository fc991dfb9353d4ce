package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/entity"
	"image_compression/pkg/archive"
	"image_compression/pkg/imagecompress"
	"image_compression/pkg/logger"
)

const (
	maxWait      = 60 * time.Second
	manifestName = "manifest.json"
)

type compressionRoutes struct {
	images         entity.ImageCompressor
	jobs           entity.CompressionPlanner
	maxUploadBytes int64
	unpack         archive.Limits
	l              logger.Interface
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

func newCompressionRoutes(handler *gin.RouterGroup, images entity.ImageCompressor, jobs entity.CompressionPlanner, maxUploadBytes int64, unpack archive.Limits, l logger.Interface) {
	r := &compressionRoutes{images: images, jobs: jobs, maxUploadBytes: maxUploadBytes, unpack: unpack.WithDefaults(), l: l}

	h := handler.Group("/compression")
	{
		h.POST("/images", r.compressImage)
		h.POST("/archives", r.compressArchive)
		h.POST("/jobs/:bucket/*key", r.planJob)
		h.GET("/jobs/:id", r.getJob)
	}
}

// @Summary     Compress an image
// @Description Downscale and re-encode an uploaded image until it fits max_size_bytes
// @ID          compress-image
// @Tags  	    compression
// @Accept      multipart/form-data
// @Produce     image/jpeg,image/png,image/webp
// @Param       file           formData file    true  "JPEG, PNG or WebP image"
// @Param       max_size_bytes formData integer false "byte budget"
// @Param       max_dimension  formData integer false "longest edge in pixels"
// @Param       prefer_webp    formData boolean false "encode PNG sources as WebP"
// @Success     200 {file} file
// @Failure     400 {object} response
// @Failure     415 {object} response
// @Failure     422 {object} response
// @Failure     500 {object} response
// @Router      /compression/images [post]
func (r *compressionRoutes) compressImage(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "compress-image-api")
	defer span.End()

	fh, data, opts, ok := r.readUpload(c)
	if !ok {
		return
	}

	declared := fh.Header.Get("Content-Type")
	if declared == "" || imagecompress.NormalizeType(declared) == "application/octet-stream" {
		declared = mimetype.Detect(data).String()
	}
	span.SetAttributes(attribute.String("type", declared), attribute.Int("size", len(data)))

	file := &imagecompress.File{
		Name:         fh.Filename,
		Type:         declared,
		LastModified: time.Now(),
		Data:         data,
	}

	res, err := r.images.CompressFile(ctx, file, opts)
	switch {
	case errors.Is(err, imagecompress.ErrInvalidOptions):
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, imagecompress.ErrDecode):
		errorResponse(c, http.StatusUnprocessableEntity, "the image could not be decoded")
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, "failed to compress image")
		return
	}

	c.Header("X-Was-Compressed", strconv.FormatBool(res.WasCompressed))
	c.Header("X-Meets-Limit", strconv.FormatBool(res.MeetsLimit))
	c.Header("X-Original-Size", strconv.FormatInt(res.OriginalSize, 10))
	c.Header("X-Final-Size", strconv.FormatInt(res.FinalSize, 10))

	if !res.MeetsLimit {
		if !imagecompress.IsSupported(file.Type) {
			errorResponse(c, http.StatusUnsupportedMediaType, "please choose a JPEG, PNG or WebP image")
			return
		}
		errorResponse(c, http.StatusUnprocessableEntity, "please choose a smaller file")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.File.Name}))
	c.Data(http.StatusOK, res.File.Type, res.File.Data)
}

// readUpload reads the multipart file and the option fields. It writes the
// error response itself and reports false on failure.
func (r *compressionRoutes) readUpload(c *gin.Context) (*multipart.FileHeader, []byte, imagecompress.Options, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(c, http.StatusRequestEntityTooLarge, "upload is too large")
			return nil, nil, imagecompress.Options{}, false
		}
		errorResponse(c, http.StatusBadRequest, "multipart field file is required")
		return nil, nil, imagecompress.Options{}, false
	}

	opts, err := r.uploadOptions(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return nil, nil, imagecompress.Options{}, false
	}

	f, err := fh.Open()
	if err != nil {
		r.l.Error(fmt.Errorf("http - v1 - readUpload - Open: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to read upload")
		return nil, nil, imagecompress.Options{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		r.l.Error(fmt.Errorf("http - v1 - readUpload - ReadAll: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to read upload")
		return nil, nil, imagecompress.Options{}, false
	}

	return fh, data, opts, true
}

func (r *compressionRoutes) uploadOptions(c *gin.Context) (imagecompress.Options, error) {
	opts := r.images.DefaultOptions()

	if v := c.PostForm("max_size_bytes"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("max_size_bytes must be a positive integer")
		}
		opts.MaxSizeBytes = n
	}
	if v := c.PostForm("max_dimension"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("max_dimension must be a positive integer")
		}
		opts.MaxDimension = n
	}
	if v := c.PostForm("prefer_webp"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("prefer_webp must be a boolean")
		}
		opts.PreferWebP = b
	}

	return opts, nil
}

// @Summary     Compress an archive of images
// @Description Compress every image in a tar or tar.gz upload; returns a tar.gz with the results and a manifest.json
// @ID          compress-archive
// @Tags  	    compression
// @Accept      multipart/form-data
// @Produce     application/gzip
// @Param       file           formData file    true  "tar or tar.gz archive"
// @Param       max_size_bytes formData integer false "byte budget per image"
// @Param       max_dimension  formData integer false "longest edge in pixels"
// @Param       prefer_webp    formData boolean false "encode PNG sources as WebP"
// @Success     200 {file} file
// @Failure     400 {object} response
// @Failure     415 {object} response
// @Failure     500 {object} response
// @Router      /compression/archives [post]
func (r *compressionRoutes) compressArchive(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "compress-archive-api")
	defer span.End()

	fh, data, opts, ok := r.readUpload(c)
	if !ok {
		return
	}

	archiver, err := archive.Detect(data, r.unpack)
	if err != nil {
		errorResponse(c, http.StatusUnsupportedMediaType, "please choose a tar or tar.gz archive")
		return
	}

	entries, err := archiver.Unpack(ctx, bytes.NewReader(data))
	switch {
	case errors.Is(err, archive.ErrTooManyEntries):
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("archives may hold at most %d files", r.unpack.MaxEntries))
		return
	case errors.Is(err, archive.ErrTooLarge):
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("archive files may hold at most %d bytes each and %d bytes in total", r.unpack.MaxEntryBytes, r.unpack.MaxTotalBytes))
		return
	}
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "the archive could not be read")
		return
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))

	out, items := r.images.CompressEntries(ctx, entries, opts)

	manifest, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		r.l.Error(fmt.Errorf("http - v1 - compressArchive - manifest: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to build manifest")
		return
	}
	out = append(out, archive.Entry{Name: manifestName, ModTime: time.Now(), Body: manifest})

	var buf bytes.Buffer
	packer := archive.NewTarGzArchiver(r.unpack)
	if err := packer.Pack(ctx, out, &buf); err != nil {
		r.l.Error(fmt.Errorf("http - v1 - compressArchive - Pack: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to build archive")
		return
	}

	name := archiveBase(fh.Filename) + "-compressed" + packer.Extension()
	c.Header("X-Entries", strconv.Itoa(len(items)))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "application/gzip", buf.Bytes())
}

func archiveBase(filename string) string {
	base := path.Base(filename)
	for _, ext := range []string{".tar.gz", ".tgz", ".tar"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	if base == "" || base == "." || base == "/" {
		return "images"
	}
	return base
}

// @Summary     Queue compression of a stored object
// @Description Publish a compression job for bucket/key; identical pending jobs share an id
// @ID          plan-compression
// @Tags  	    compression
// @Produce     json
// @Param       bucket         path  string  true  "source bucket"
// @Param       key            path  string  true  "object key"
// @Param       max_size_bytes query integer false "byte budget"
// @Success     202 {object} jobResponse
// @Failure     400 {object} response
// @Failure     500 {object} response
// @Router      /compression/jobs/{bucket}/{key} [post]
func (r *compressionRoutes) planJob(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "plan-compression-api")
	defer span.End()

	req := entity.CompressionRequest{
		Bucket:       c.Param("bucket"),
		Key:          strings.TrimPrefix(c.Param("key"), "/"),
		MaxSizeBytes: r.images.DefaultOptions().MaxSizeBytes,
	}
	if req.Key == "" {
		errorResponse(c, http.StatusBadRequest, "object key is required")
		return
	}
	if v := c.Query("max_size_bytes"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, "max_size_bytes must be a positive integer")
			return
		}
		req.MaxSizeBytes = n
	}

	jobID, err := r.jobs.PlanCompression(ctx, req)
	if err != nil {
		r.l.Error(fmt.Errorf("http - v1 - planJob: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to plan compression")
		return
	}

	c.JSON(http.StatusAccepted, jobResponse{JobID: jobID})
}

// @Summary     Get a compression job
// @Description Report a job's status, optionally waiting up to 60 seconds for it to finish
// @ID          get-compression
// @Tags  	    compression
// @Produce     json
// @Param       id   path  string  true  "job id"
// @Param       wait query integer false "seconds to wait"
// @Success     200 {object} entity.CompressionResponse
// @Success     202 {object} entity.CompressionResponse
// @Failure     404 {object} response
// @Failure     500 {object} response
// @Router      /compression/jobs/{id} [get]
func (r *compressionRoutes) getJob(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "get-compression-api")
	defer span.End()

	var wait time.Duration
	if v := c.Query("wait"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			errorResponse(c, http.StatusBadRequest, "wait must be a non-negative integer")
			return
		}
		wait = time.Duration(secs) * time.Second
		if wait > maxWait {
			wait = maxWait
		}
	}

	res, err := r.jobs.GetCompression(ctx, c.Param("id"), wait)
	if errors.Is(err, entity.ErrJobNotFound) {
		errorResponse(c, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		r.l.Error(fmt.Errorf("http - v1 - getJob: %w", err))
		errorResponse(c, http.StatusInternalServerError, "failed to get compression")
		return
	}

	if !res.Finished() {
		c.JSON(http.StatusAccepted, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
