package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

// setupMinio starts a MinIO container with a fresh bucket seeded with objects
func setupMinio(t *testing.T, objects map[string]string) (endpoint, bucket string) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		tcminio.WithUsername(minioUser),
		tcminio.WithPassword(minioPassword),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err = container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
	})
	require.NoError(t, err)

	bucket = "fiberscope-test-" + uuid.New().String()[:8]
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))

	for key, body := range objects {
		_, err := client.PutObject(ctx, bucket, key, bytes.NewReader([]byte(body)), int64(len(body)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		require.NoError(t, err)
	}
	return endpoint, bucket
}

func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint, bucket := setupMinio(t, map[string]string{
		"fibers/fiber_1_1_frequencies_short.npy":   "freqs",
		"fibers/fiber_1_1_timestamps_short.npy":    "times",
		"fibers/archive/fiber_1_1_frequencies.npy": "old",
		"other/fiber_2_1_frequencies_short.npy":    "elsewhere",
	})
	ctx := context.Background()

	store, err := NewS3Store(ctx, S3Config{
		Bucket:    bucket,
		Prefix:    "/fibers/",
		Endpoint:  endpoint,
		AccessKey: minioUser,
		SecretKey: minioPassword,
	})
	require.NoError(t, err)

	t.Run("list strips prefix and skips nested keys", func(t *testing.T) {
		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"fiber_1_1_frequencies_short.npy", "fiber_1_1_timestamps_short.npy"}, names)
	})

	t.Run("open", func(t *testing.T) {
		rc, err := store.Open(ctx, "fiber_1_1_frequencies_short.npy")
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "freqs", string(b))
	})

	t.Run("open missing", func(t *testing.T) {
		_, err := store.Open(ctx, "fiber_9_9_frequencies_short.npy")
		assert.Error(t, err)
	})

	t.Run("create uploads on close", func(t *testing.T) {
		w, err := store.Create(ctx, "fiber_1_2_frequencies_short.npy")
		require.NoError(t, err)
		_, err = w.Write([]byte("new"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		rc, err := store.Open(ctx, "fiber_1_2_frequencies_short.npy")
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "new", string(b))
	})
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
