package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newMinIO(t *testing.T) *MinIO {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping minio integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.Run(ctx, "minio/minio:RELEASE.2025-04-22T22-12-26Z",
		testcontainers.WithExposedPorts("9000/tcp"),
		testcontainers.WithCmd("server", "/data"),
		testcontainers.WithEnv(map[string]string{
			"MINIO_ROOT_USER":     "fintrack",
			"MINIO_ROOT_PASSWORD": "fintrack-secret",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	m, err := NewMinIO(MinIOOptions{
		Endpoint:  endpoint,
		AccessKey: "fintrack",
		SecretKey: "fintrack-secret",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	require.NoError(t, m.client.MakeBucket(ctx, "exports", minio.MakeBucketOptions{}))

	return m
}

func TestMinIO(t *testing.T) {
	m := newMinIO(t)
	ctx := context.Background()

	put := func(t *testing.T, key, body string) {
		t.Helper()
		_, err := m.Put(ctx, "exports", key, strings.NewReader(body), PutOptions{
			Size:        int64(len(body)),
			ContentType: "application/json",
		})
		require.NoError(t, err)
	}

	t.Run("presigned url serves the uploaded object", func(t *testing.T) {
		// Arrange
		put(t, "exports/7/a.json", `{"count":1}`)

		// Act
		url, err := m.PresignGet(ctx, "exports", "exports/7/a.json", time.Minute)
		require.NoError(t, err)
		resp, err := http.Get(url) //nolint:gosec,noctx // url comes from the test container
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"count":1}`, string(body))
	})

	t.Run("delete prefix removes only that account", func(t *testing.T) {
		// Arrange
		put(t, "exports/7/b.json", `{}`)
		put(t, "exports/8/c.json", `{}`)

		// Act
		n, err := m.DeletePrefix(ctx, "exports", "exports/7/")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		_, err = m.client.StatObject(ctx, "exports", "exports/8/c.json", minio.StatObjectOptions{})
		assert.NoError(t, err)
	})

	t.Run("deleting a missing object succeeds", func(t *testing.T) {
		// Act
		err := m.Delete(ctx, "exports", "exports/9/none.json")

		// Assert
		assert.NoError(t, err)
	})
}
