package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"call_center_app_go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "ID3 fake audio"
	key := RecordingKey("CA123")

	t.Run("Put creates file", func(t *testing.T) {
		result, err := storage.Put(ctx, key, strings.NewReader(content), "audio/mpeg", int64(len(content)))
		require.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, int64(len(content)), result.Size)

		_, err = os.Stat(filepath.Join(tempDir, "recordings", "CA123.mp3"))
		assert.NoError(t, err)

		exists, err := storage.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Get returns content and audio type", func(t *testing.T) {
		reader, contentType, err := storage.Get(ctx, key)
		require.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, content, string(got))
		assert.Equal(t, "audio/mpeg", contentType)
	})

	t.Run("missing object", func(t *testing.T) {
		_, _, err := storage.Get(ctx, "recordings/none.mp3")
		assert.ErrorIs(t, err, ErrObjectNotFound)

		exists, err := storage.Exists(ctx, "recordings/none.mp3")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("keys cannot escape the base directory", func(t *testing.T) {
		_, err := storage.Put(ctx, "../../escape.mp3", strings.NewReader("x"), "audio/mpeg", 1)
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(tempDir, "escape.mp3"))
		assert.NoError(t, err)
	})
}

func TestRecordingKey(t *testing.T) {
	assert.Equal(t, "recordings/CA1.mp3", RecordingKey("CA1"))
	assert.Equal(t, "recordings/evil.mp3", RecordingKey("../../evil"))
}

func TestInitializeStorageFallsBackToLocal(t *testing.T) {
	prev := Storage
	t.Cleanup(func() { Storage = prev })

	InitializeStorage(&config.Config{RecordingsDir: t.TempDir()})
	require.NotNil(t, Storage)
	assert.Equal(t, "local", Storage.Name())
}
