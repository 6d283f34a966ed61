// Package storage relays file objects to the external object-storage provider.
// The provider is any S3-compatible endpoint; this boundary adds no storage
// semantics of its own beyond key derivation and public-URL resolution.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrObjectExists is returned when a put would overwrite an existing object.
// Overwrite is disabled: every upload must land under a fresh key.
var ErrObjectExists = errors.New("object already exists at key")

// Object describes a stored file as returned to API clients.
type Object struct {
	Key         string    `json:"path"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"type,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the interface handlers use to talk to the object-storage provider.
// The MinIO implementation is injected at startup; tests use fakes.
type Store interface {
	// Put stores the object under key with overwrite disabled.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// List returns up to limit objects, newest first.
	List(ctx context.Context, limit int) ([]Object, error)
	// PublicURL constructs the browser-accessible URL for a key.
	PublicURL(key string) string
	// Ping checks provider reachability. Used by the readiness handler.
	Ping(ctx context.Context) error
}

// ulidEncodedLen is the length of a ULID's canonical string form.
const ulidEncodedLen = 26

// DeriveKey builds a unique storage key for an uploaded filename.
// The key is "<ulid>-<sanitized name>": the ULID's leading characters encode
// the upload timestamp (so keys sort chronologically) and its entropy makes
// two uploads of the same name in the same millisecond produce distinct keys.
func DeriveKey(filename string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return id.String() + "-" + SanitizeFilename(filename)
}

// SanitizeFilename reduces a client-supplied filename to a safe key segment.
// Path components are stripped and any character outside [A-Za-z0-9._-]
// becomes an underscore.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DisplayName recovers the original (sanitized) filename from a derived key.
// Keys that do not carry the expected ULID prefix are returned unchanged.
func DisplayName(key string) string {
	if len(key) > ulidEncodedLen+1 && key[ulidEncodedLen] == '-' {
		if _, err := ulid.ParseStrict(key[:ulidEncodedLen]); err == nil {
			return key[ulidEncodedLen+1:]
		}
	}
	return key
}

// GuessContentType returns a content type for a key when the provider's
// listing omits one, falling back to application/octet-stream.
func GuessContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
