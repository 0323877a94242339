// Package storage defines the interface for a blob storage provider.
// The abstraction keeps the scraper independent of where page records land
// (Google Cloud Storage, the local filesystem, or memory during development).
package storage

import (
	"context"
	"io"
)

// Provider is the common interface for a blob storage backend. PutObject
// persists the content under the given path and returns the URI of the
// stored object.
type Provider interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// NoOpProvider discards everything. It backs dry runs where pages are
// crawled but nothing is persisted.
type NoOpProvider struct{}

// PutObject drops the data and returns a null URI.
func (NoOpProvider) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, data); err != nil {
		return "", err
	}
	return "noop://" + path, nil
}
