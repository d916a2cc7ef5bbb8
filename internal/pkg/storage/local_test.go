package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)

	t.Run("upload download delete", func(t *testing.T) {
		key, err := store.Upload(ctx, strings.NewReader("hello"), "attendance/u-1/2025-08-10/a.jpg", "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "attendance/u-1/2025-08-10/a.jpg", key)

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		rc, err := store.Download(ctx, key)
		require.NoError(t, err)
		body, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, "hello", string(body))

		assert.Equal(t, "http://localhost:8080/uploads/attendance/u-1/2025-08-10/a.jpg", store.URL(key))

		require.NoError(t, store.Delete(ctx, key))
		require.NoError(t, store.Delete(ctx, key))
		exists, err = store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("traversal stays inside base path", func(t *testing.T) {
		key, err := store.Upload(ctx, strings.NewReader("x"), "../../etc/passwd", "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "etc/passwd", key)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := store.Upload(ctx, strings.NewReader("x"), "/", "text/plain")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Download(ctx, "nope.txt")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}
