// Package storage is a small filesystem abstraction with two drivers:
//   - "local": a directory on the local filesystem (default)
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// The export command writes table snapshots through it:
//
//	disk, err := storage.New(config.StorageDefault())
//	err = disk.Put(ctx, "exports/20260101T000000Z/Productos.json", data)
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get for a missing path.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the filesystem driver interface. Paths use forward slashes.
type Disk interface {
	// Put writes content to path, replacing any existing file.
	Put(ctx context.Context, path string, content []byte) error
	// Get returns the full content of path.
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	// Delete removes path. A missing file is not an error.
	Delete(ctx context.Context, path string) error
	// Files lists the files directly inside directory.
	Files(ctx context.Context, directory string) ([]string, error)
	// URL returns where path can be fetched from.
	URL(path string) string
}
