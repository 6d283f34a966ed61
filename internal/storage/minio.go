package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store against any S3-compatible provider.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	secure     bool
	endpoint   string
}

// MinioConfig holds the settings needed to reach the storage provider.
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
	UseSSL     bool
}

// NewMinioStore creates a provider client and verifies the bucket exists.
// A missing bucket is created; an unreachable provider fails the boot.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
		secure:     cfg.UseSSL,
		endpoint:   cfg.Endpoint,
	}, nil
}

// Bucket returns the configured bucket name, surfaced in storage-error
// diagnostics.
func (s *MinioStore) Bucket() string {
	return s.bucket
}

// Put stores the object under key. An existing object at the same key is
// never silently replaced: the key is checked first and ErrObjectExists is
// returned if it is taken. The stat-then-put window is the documented
// narrow race on identically derived keys.
func (s *MinioStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return ErrObjectExists
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "NoSuchKey" && resp.StatusCode != 404 {
		return fmt.Errorf("stat object %q: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// List returns up to limit objects, newest first. The provider offers no
// reverse-chronological listing, so the page is assembled locally: keys are
// ULID-prefixed and therefore sort chronologically.
func (s *MinioStore) List(ctx context.Context, limit int) ([]Object, error) {
	objects := make([]Object, 0, limit)

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list bucket %q: %w", s.bucket, info.Err)
		}

		contentType := info.ContentType
		if contentType == "" {
			contentType = GuessContentType(info.Key)
		}

		objects = append(objects, Object{
			Key:         info.Key,
			Name:        DisplayName(info.Key),
			Size:        info.Size,
			ContentType: contentType,
			URL:         s.PublicURL(info.Key),
			CreatedAt:   info.LastModified,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		if !objects[i].CreatedAt.Equal(objects[j].CreatedAt) {
			return objects[i].CreatedAt.After(objects[j].CreatedAt)
		}
		return objects[i].Key > objects[j].Key
	})

	if len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// PublicURL returns the browser-accessible URL for a key. A configured
// public base (e.g. a CDN) wins; otherwise the provider endpoint is used.
func (s *MinioStore) PublicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}

// Ping checks that the provider is reachable and the bucket still exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q no longer exists", s.bucket)
	}
	return nil
}
