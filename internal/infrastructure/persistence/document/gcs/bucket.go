// Package gcs is a document.Bucket backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/rezkam/taskly/internal/infrastructure/persistence/document"
)

var _ document.Bucket = (*Bucket)(nil)

// Bucket stores objects in a GCS bucket.
type Bucket struct {
	client *storage.Client
	bucket string
}

// NewBucket creates a GCS-backed bucket.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
func NewBucket(ctx context.Context, bucketName string) (*Bucket, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &Bucket{client: client, bucket: bucketName}, nil
}

// NewStore is a shortcut for document.NewStore over a GCS bucket.
func NewStore(ctx context.Context, bucketName string) (*document.Store, error) {
	b, err := NewBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	return document.NewStore(b), nil
}

func (b *Bucket) object(name string) *storage.ObjectHandle {
	return b.client.Bucket(b.bucket).Object(name)
}

// Read downloads an object.
func (b *Bucket) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, document.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Write uploads an object. createOnly uses a DoesNotExist precondition so
// concurrent creators cannot overwrite each other.
func (b *Bucket) Write(ctx context.Context, name string, data []byte, createOnly bool) error {
	obj := b.object(name)
	if createOnly {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return document.ErrObjectExists
		}
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Delete removes an object.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	if err := b.object(name).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return document.ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List returns the names of objects under prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Close closes the GCS client.
func (b *Bucket) Close() error {
	return b.client.Close()
}
