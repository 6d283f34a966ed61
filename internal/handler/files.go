package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dropgate/dropgate/internal/handler/dto"
	"github.com/dropgate/dropgate/internal/metrics"
	"github.com/dropgate/dropgate/internal/middleware"
	"github.com/dropgate/dropgate/internal/storage"
)

// listLimit caps the number of objects returned from a listing.
const listLimit = 100

// uploadFieldName is the multipart form field carrying the file.
const uploadFieldName = "file"

// FileHandler relays uploads and listings to the storage provider.
type FileHandler struct {
	logger  *slog.Logger
	store   storage.Store
	bucket  string
	metrics metrics.Recorder
	now     func() time.Time
}

// NewFileHandler creates a new FileHandler. The bucket name is only used
// in error diagnostics.
func NewFileHandler(logger *slog.Logger, store storage.Store, bucket string, rec metrics.Recorder) *FileHandler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &FileHandler{
		logger:  logger,
		store:   store,
		bucket:  bucket,
		metrics: rec,
		now:     time.Now,
	}
}

// Upload stores a single multipart file under a freshly derived key.
//
// POST /api/upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.metrics.IncUpload("error")
		writeError(w, http.StatusBadRequest, CodeBadRequest, "no file provided", "",
			`send the file as multipart form field "file"`)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = storage.GuessContentType(header.Filename)
	}

	key := storage.DeriveKey(header.Filename, h.now())

	start := h.now()
	err = h.store.Put(r.Context(), key, file, header.Size, contentType)
	if errors.Is(err, storage.ErrObjectExists) {
		// Fresh entropy, single retry
		key = storage.DeriveKey(header.Filename, h.now())
		err = h.store.Put(r.Context(), key, file, header.Size, contentType)
	}
	h.metrics.ObserveProviderCall("storage", time.Since(start))

	if err != nil {
		h.metrics.IncUpload("error")
		h.logger.Error("upload failed",
			slog.String("key", key),
			slog.Int64("size", header.Size),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, CodeStorage, "failed to store file", err.Error(),
			fmt.Sprintf("check that bucket %q exists and the storage credentials allow writes", h.bucket))
		return
	}

	h.metrics.IncUpload("ok")
	h.logger.Info("file uploaded",
		slog.String("key", key),
		slog.Int64("size", header.Size),
		slog.String("content_type", contentType),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusCreated, dto.UploadResponse{
		File: dto.FileInfo{
			Name: header.Filename,
			Size: header.Size,
			Type: contentType,
			Path: key,
			URL:  h.store.PublicURL(key),
		},
	})
}

// List returns the newest objects in the bucket, capped at 100.
//
// GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	objects, err := h.store.List(r.Context(), listLimit)
	h.metrics.ObserveProviderCall("storage", time.Since(start))

	if err != nil {
		h.metrics.IncListing("error")
		h.logger.Error("listing failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, CodeStorage, "failed to list files", err.Error(),
			fmt.Sprintf("check that bucket %q exists and the storage credentials allow reads", h.bucket))
		return
	}

	files := make([]dto.FileInfo, 0, len(objects))
	for _, obj := range objects {
		files = append(files, dto.FileInfo{
			Name:      obj.Name,
			Size:      obj.Size,
			Type:      obj.ContentType,
			Path:      obj.Key,
			URL:       obj.URL,
			CreatedAt: obj.CreatedAt,
		})
	}

	h.metrics.IncListing("ok")
	writeJSON(w, http.StatusOK, dto.ListFilesResponse{Files: files})
}
