package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dropgate/dropgate/internal/handler/dto"
	"github.com/dropgate/dropgate/internal/storage"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	objects []storage.Object
	putKeys []string
	putErr  error
	listErr error
}

func (f *fakeStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	f.objects = append(f.objects, storage.Object{
		Key:         key,
		Name:        storage.DisplayName(key),
		Size:        size,
		ContentType: contentType,
		URL:         f.PublicURL(key),
		CreatedAt:   time.Now(),
	})
	return nil
}

func (f *fakeStore) List(ctx context.Context, limit int) ([]storage.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.objects) > limit {
		return f.objects[:limit], nil
	}
	return f.objects, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/uploads/" + key
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

// multipartBody builds a multipart request body with a single file field.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.Copy(fw, strings.NewReader(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func TestUpload_Success(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	content := strings.Repeat("x", 1024)
	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "report.pdf", content))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.File.Name != "report.pdf" {
		t.Errorf("file.name = %q, want report.pdf", resp.File.Name)
	}
	if resp.File.Size != 1024 {
		t.Errorf("file.size = %d, want 1024", resp.File.Size)
	}
	if !strings.HasSuffix(resp.File.Path, "-report.pdf") {
		t.Errorf("file.path = %q, want a derived key ending in -report.pdf", resp.File.Path)
	}
	if resp.File.Path == "report.pdf" {
		t.Error("file.path should carry a unique prefix, not the bare filename")
	}
	if resp.File.URL == "" {
		t.Error("file.url should not be empty")
	}
}

func TestUpload_NameKeptVerbatim(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	// Sanitization applies to the storage key only, the response echoes
	// the name the client sent.
	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "my report (final).pdf", "data"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.File.Name != "my report (final).pdf" {
		t.Errorf("file.name = %q, want the original filename", resp.File.Name)
	}
	if !strings.HasSuffix(resp.File.Path, "-my_report__final_.pdf") {
		t.Errorf("file.path = %q, want a key with the sanitized name", resp.File.Path)
	}
}

func TestUpload_SameNameTwiceDistinctKeys(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Upload(rec, uploadRequest(t, "notes.txt", "hello"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d status = %d, want 201", i, rec.Code)
		}
	}

	if len(store.putKeys) != 2 {
		t.Fatalf("puts = %d, want 2", len(store.putKeys))
	}
	if store.putKeys[0] == store.putKeys[1] {
		t.Errorf("both uploads stored under key %q, want distinct keys", store.putKeys[0])
	}
}

func TestUpload_NoFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	body, contentType := multipartBody(t, "attachment", "report.pdf", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	got := decodeError(t, rec)
	if got.Code != CodeBadRequest {
		t.Errorf("code = %q, want %q", got.Code, CodeBadRequest)
	}
	if got.Error != "no file provided" {
		t.Errorf("error = %q, want %q", got.Error, "no file provided")
	}
	if len(store.putKeys) != 0 {
		t.Errorf("puts = %d, want 0", len(store.putKeys))
	}
}

func TestUpload_StorageError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{putErr: errors.New("Access Denied.")}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "report.pdf", "data"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	got := decodeError(t, rec)
	if got.Code != CodeStorage {
		t.Errorf("code = %q, want %q", got.Code, CodeStorage)
	}
	if !strings.Contains(got.Details, "Access Denied") {
		t.Errorf("details = %q, want the provider message", got.Details)
	}
	if !strings.Contains(got.Hint, `"uploads"`) {
		t.Errorf("hint = %q, want the bucket name", got.Hint)
	}
}

func TestList_Empty(t *testing.T) {
	t.Parallel()

	h := NewFileHandler(testLogger(), &fakeStore{}, "uploads", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"files":[]`) {
		t.Errorf("body = %s, want an empty files array, not null", rec.Body.String())
	}
}

func TestList_ReturnsUploadedFiles(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := NewFileHandler(testLogger(), store, "uploads", nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "report.pdf", strings.Repeat("x", 1024)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}

	var resp dto.ListFilesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(resp.Files))
	}
	f := resp.Files[0]
	if f.Name != "report.pdf" {
		t.Errorf("name = %q, want report.pdf", f.Name)
	}
	if f.Size != 1024 {
		t.Errorf("size = %d, want 1024", f.Size)
	}
	if f.URL == "" {
		t.Error("url should not be empty")
	}
}

func TestList_StorageError(t *testing.T) {
	t.Parallel()

	h := NewFileHandler(testLogger(), &fakeStore{listErr: errors.New("connection refused")}, "uploads", nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != CodeStorage {
		t.Errorf("code = %q, want %q", got.Code, CodeStorage)
	}
}
