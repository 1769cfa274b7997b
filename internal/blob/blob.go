// Package blob stores entry photos in object storage.
package blob

import (
	"context"
	"io"
)

// ImageStore uploads and deletes entry photos.
type ImageStore interface {
	// Upload stores the image and returns its public URL.
	Upload(ctx context.Context, filename string, size int64, body io.Reader) (string, error)
	// Delete removes the image behind url. URLs that were not produced by
	// this store are ignored.
	Delete(ctx context.Context, url string) error
}

// NoopStore is used when object storage is not configured. Uploads return an
// empty URL and deletes do nothing.
type NoopStore struct{}

func (NoopStore) Upload(ctx context.Context, filename string, size int64, body io.Reader) (string, error) {
	return "", nil
}

func (NoopStore) Delete(ctx context.Context, url string) error {
	return nil
}
