// Package storage is the content store the stages read from and write to, keyed by bucket and key.
package storage

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned (wrapped) when an object does not exist.
var ErrNotFound = errors.New("object not found")

type Object struct {
	Key  string
	Size int64
}

type Store interface {
	// Download writes the object to the local file dest and returns the bytes written.
	Download(ctx context.Context, bucket, key, dest string) (int64, error)
	// Upload stores the local file src under key.
	Upload(ctx context.Context, bucket, key, src string) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	// List returns objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
