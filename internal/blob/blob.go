// Package blob stores uploaded project files. Two backends exist: a MinIO
// (S3-compatible) bucket for deployments and a local directory for
// development; both expose the same Store interface.
package blob

import (
	"context"
	"io"
)

// Store is the blob area uploaded files land in. Put returns the public URL
// recorded on the File entity; Remove is used for delete and for cleaning up
// after a failed metadata insert.
type Store interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, name string) error
}
