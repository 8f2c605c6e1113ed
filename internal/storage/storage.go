// Package storage defines the blob store contract used for downloaded
// binary documents.
package storage

import "context"

// BlobStore writes raw artifacts and returns a URI for the stored object.
type BlobStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOp discards everything. Useful when the download strategy is disabled.
type NoOp struct{}

// Put drops the data and returns an empty URI.
func (NoOp) Put(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
