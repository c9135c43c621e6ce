package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSOptions configures the GCS driver. Without GoogleAccessID and
// PrivateKey the client's own credentials sign URLs when they can.
type GCSOptions struct {
	Client         *gcs.Client
	GoogleAccessID string
	PrivateKey     []byte
}

type GCS struct {
	client *gcs.Client
	opts   GCSOptions
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	client := opts.Client
	if client == nil {
		c, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: gcs client: %w", err)
		}
		client = c
	}
	return &GCS{client: client, opts: opts}, nil
}

func (g *GCS) Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (Object, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("storage: gcs write %s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: gcs close %s/%s: %w", bucket, key, err)
	}

	obj := Object{Bucket: bucket, Key: key, Size: opts.Size}
	if attrs := w.Attrs(); attrs != nil {
		obj.Size = attrs.Size
		obj.ETag = attrs.Etag
	}
	return obj, nil
}

func (g *GCS) Delete(ctx context.Context, bucket, key string) error {
	err := g.client.Bucket(bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (g *GCS) DeletePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	b := g.client.Bucket(bucket)
	it := b.Objects(ctx, &gcs.Query{Prefix: prefix})

	deleted := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return deleted, nil
		}
		if err != nil {
			return deleted, fmt.Errorf("storage: gcs list %s/%s: %w", bucket, prefix, err)
		}
		if err := b.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return deleted, fmt.Errorf("storage: gcs delete %s/%s: %w", bucket, attrs.Name, err)
		}
		deleted++
	}
}

func (g *GCS) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}
	if g.opts.GoogleAccessID != "" && len(g.opts.PrivateKey) > 0 {
		opts.GoogleAccessID = g.opts.GoogleAccessID
		opts.PrivateKey = g.opts.PrivateKey
	}

	url, err := g.client.Bucket(bucket).SignedURL(key, opts)
	if err != nil {
		return "", errors.Join(ErrMissingSigner, err)
	}
	return url, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
