package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStore_Unit(t *testing.T) {
	// No disk I/O is performed.
	memFs := afero.NewMemMapFs()
	store := NewAferoStore(memFs, "data/avatars", "/avatars/")
	ctx := context.Background()

	name := "u-1-1700000000000-abc123.png"
	content := "not really a png"

	t.Run("Upload", func(t *testing.T) {
		require.NoError(t, store.Upload(ctx, name, bytes.NewReader([]byte(content)), "image/png"))

		readBytes, err := afero.ReadFile(memFs, "data/avatars/"+name)
		require.NoError(t, err)
		assert.Equal(t, content, string(readBytes))
	})

	t.Run("Open", func(t *testing.T) {
		file, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer file.Close()

		readBytes, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, string(readBytes))
	})

	t.Run("PublicURL", func(t *testing.T) {
		assert.Equal(t, "/avatars/"+name, store.PublicURL(name))
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, name))

		exists, err := afero.Exists(memFs, "data/avatars/"+name)
		require.NoError(t, err)
		assert.False(t, exists, "file should not exist after removing")

		assert.NoError(t, store.Remove(ctx, name), "removing twice is fine")
	})

	t.Run("names cannot escape the root", func(t *testing.T) {
		for _, bad := range []string{"", "../secret.png", "a/b.png", `a\b.png`, ".hidden.png"} {
			assert.ErrorIs(t, store.Upload(ctx, bad, bytes.NewReader(nil), "image/png"), ErrInvalidName, bad)
			_, err := store.Open(ctx, bad)
			assert.ErrorIs(t, err, ErrInvalidName, bad)
		}
	})

	t.Run("Open non-existent file", func(t *testing.T) {
		_, err := store.Open(ctx, "nothing.png")
		assert.Error(t, err, "opening a non-existent file should return an error")
	})
}
