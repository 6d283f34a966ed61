package dto

import "time"

// FileInfo describes a stored object as exposed to clients.
// Path is the object key in the bucket; Name is the original filename.
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type,omitempty"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UploadResponse is returned from POST /api/upload.
type UploadResponse struct {
	File FileInfo `json:"file"`
}

// ListFilesResponse is returned from GET /api/files.
// Files is always present, empty when the bucket has no objects.
type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
}
