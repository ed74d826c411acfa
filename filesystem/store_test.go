package filesystem_test

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/filesystem"
)

func setupStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	signer, err := kilnlog.NewURLSigner([]byte("test-signing-secret"))
	require.NoError(t, err)

	return filesystem.NewBlobStore(root, signer, "http://localhost:5812/"), dir
}

func mustPut(t *testing.T, store *filesystem.Store, itemID, photoID, fileName, content string) string {
	t.Helper()
	path, err := store.Put(context.Background(), itemID, photoID, strings.NewReader(content), "image/jpeg", fileName)
	require.NoError(t, err)
	return path
}

func TestStore_Put(t *testing.T) {
	t.Run("writes to the derived path", func(t *testing.T) {
		store, dir := setupStore(t)

		path := mustPut(t, store, "item-1", "ph-1", "mug.JPG", "jpegdata")
		assert.Equal(t, "items/item-1/ph-1.jpg", path)

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		require.NoError(t, err)
		assert.Equal(t, "jpegdata", string(data))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		store, dir := setupStore(t)

		mustPut(t, store, "item-1", "ph-1", "mug.jpg", "jpegdata")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".t"), "stray temp file %s", e.Name())
		}
	})

	t.Run("overwrites an existing blob", func(t *testing.T) {
		store, dir := setupStore(t)

		path := mustPut(t, store, "item-1", "ph-1", "mug.jpg", "first")
		mustPut(t, store, "item-1", "ph-1", "mug.jpg", "second")

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("cancelled context", func(t *testing.T) {
		store, _ := setupStore(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Put(ctx, "item-1", "ph-1", strings.NewReader("x"), "image/jpeg", "mug.jpg")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_Delete(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	path := mustPut(t, store, "item-1", "ph-1", "mug.jpg", "jpegdata")

	assert.NoError(t, store.Delete(ctx, path))
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path)))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Deleting again is a success.
	assert.NoError(t, store.Delete(ctx, path))
	assert.NoError(t, store.Delete(ctx, "items/item-1/never-existed.jpg"))
}

func TestStore_DeleteMany(t *testing.T) {
	t.Run("removes every listed blob", func(t *testing.T) {
		store, _ := setupStore(t)
		ctx := context.Background()

		a := mustPut(t, store, "item-1", "ph-a", "a.jpg", "a")
		b := mustPut(t, store, "item-1", "ph-b", "b.jpg", "b")

		assert.NoError(t, store.DeleteMany(ctx, []string{a, b, "items/item-1/gone.jpg"}))
	})

	t.Run("keeps going past a failing path", func(t *testing.T) {
		store, dir := setupStore(t)
		ctx := context.Background()

		good := mustPut(t, store, "item-1", "ph-a", "a.jpg", "a")

		// A directory cannot be removed with Remove-file semantics once it
		// has children, which makes "items/item-1" a reliably failing path.
		err := store.DeleteMany(ctx, []string{"items/item-1", good})
		assert.Error(t, err)

		_, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(good)))
		assert.ErrorIs(t, statErr, os.ErrNotExist, "later paths still deleted")
	})
}

func TestStore_SignedURL(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	t.Run("existing blob", func(t *testing.T) {
		path := mustPut(t, store, "item-1", "ph-1", "mug.jpg", "jpegdata")

		signed, err := store.SignedURL(ctx, path, time.Minute)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(signed, "http://localhost:5812/blobs/"+path+"?"))

		u, err := url.Parse(signed)
		require.NoError(t, err)
		assert.NotEmpty(t, u.Query().Get("sig"))
		assert.NotEmpty(t, u.Query().Get("expires"))
	})

	t.Run("missing blob yields empty url", func(t *testing.T) {
		signed, err := store.SignedURL(ctx, "items/item-1/gone.jpg", time.Minute)
		assert.NoError(t, err)
		assert.Empty(t, signed)
	})
}

func TestStore_Open(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	path := mustPut(t, store, "item-1", "ph-1", "mug.jpg", "jpegdata")

	t.Run("reads back stored bytes", func(t *testing.T) {
		f, err := store.Open(ctx, path)
		require.NoError(t, err)
		defer f.Close()

		var buf bytes.Buffer
		_, err = io.Copy(&buf, f)
		require.NoError(t, err)
		assert.Equal(t, "jpegdata", buf.String())
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := store.Open(ctx, "items/item-1/gone.jpg")
		assert.ErrorIs(t, err, kilnlog.ErrNotFound)
	})

	t.Run("escape attempt stays inside the root", func(t *testing.T) {
		outside := filepath.Join(filepath.Dir(t.TempDir()), "secret.txt")
		require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))

		_, err := store.Open(ctx, "../secret.txt")
		assert.Error(t, err)
	})
}
