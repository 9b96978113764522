package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/chorsey/apiserver/config"
	"github.com/chorsey/apiserver/internal/storage"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	s, err := storage.New(context.Background(), config.StorageConfig{Backend: config.BackendNone})

	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := storage.New(context.Background(), config.StorageConfig{Backend: "s3"})

	assert.Error(t, err)
}

func TestNew_MinioRequiresEndpoint(t *testing.T) {
	_, err := storage.New(context.Background(), config.StorageConfig{Backend: config.BackendMinio})

	assert.ErrorContains(t, err, "minio endpoint is required")
}

func TestStorage_MemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := storage.New(ctx, config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "task-photos/a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, "task-photos/a.png", strings.NewReader("pixels"), 6, "image/png"))

	exists, err = s.Exists(ctx, "task-photos/a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, "task-photos/a.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestStorage_GetMissingIsNotFound(t *testing.T) {
	s := storage.NewStorage(storage.NewMemory("test"))

	_, err := s.Get(context.Background(), "task-photos/missing.png")

	assert.ErrorIs(t, err, store.ErrNotFound)
}
