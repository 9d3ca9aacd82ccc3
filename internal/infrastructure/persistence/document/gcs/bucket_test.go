package gcs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"github.com/rezkam/taskly/internal/infrastructure/persistence/compliance"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/document"
)

// Runs against a real bucket; requires Application Default Credentials.
func TestGCSStore_Compliance(t *testing.T) {
	bucketName := os.Getenv("TASKLY_TEST_GCS_BUCKET")
	if bucketName == "" {
		t.Skip("TASKLY_TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	compliance.Run(t, func(t *testing.T) compliance.Store {
		b, err := NewBucket(context.Background(), bucketName)
		require.NoError(t, err)

		t.Cleanup(func() {
			cleanup(t, b)
			_ = b.Close()
		})
		return document.NewStore(b)
	})
}

// cleanup deletes every object the suite may have written.
func cleanup(t *testing.T, b *Bucket) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, prefix := range []string{"users/user-", "api_keys/", "api_key_ids/"} {
		it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				t.Logf("Warning: failed to list objects during cleanup: %v", err)
				break
			}
			if err := b.client.Bucket(b.bucket).Object(attrs.Name).Delete(ctx); err != nil {
				t.Logf("Warning: failed to delete object %s: %v", attrs.Name, err)
			}
		}
	}
}

func TestNewBucket_RequiresName(t *testing.T) {
	_, err := NewBucket(context.Background(), "")
	require.Error(t, err)
}
