// Package storage puts user files (avatars, data exports) into an object
// store and hands out time-limited download links for them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrMissingSigner is returned by PresignGet when the driver has no signing
// credentials.
var ErrMissingSigner = errors.New("storage: url signer not configured")

// Storage is implemented by the S3, MinIO and GCS drivers. Deleting a missing
// object is not an error.
type Storage interface {
	io.Closer

	Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (Object, error)
	Delete(ctx context.Context, bucket, key string) error
	// DeletePrefix removes every object under prefix and reports how many.
	DeletePrefix(ctx context.Context, bucket, prefix string) (int, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type PutOptions struct {
	// Size is the content length, or -1 when unknown.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type Object struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
