package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BlobStore {
	t.Helper()
	store := NewBlobStore(slog.Default(), t.TempDir())
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBlobStore_Store_Returns_The_Content_Hash(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	data := []byte("a very small image")

	hash, err := store.Store(context.Background(), data, "photo.png", "image/png", "B1")
	req.NoError(err)
	req.Len(hash, 64)

	// Same bytes, same hash: the store is content-addressed
	again, err := store.Store(context.Background(), data, "copy.png", "image/png", "S1")
	req.NoError(err)
	req.Equal(hash, again)

	// Different bytes, different hash
	other, err := store.Store(context.Background(), []byte("different"), "photo.png", "image/png", "B1")
	req.NoError(err)
	req.NotEqual(hash, other)
}

func TestBlobStore_Load_Returns_Bytes_And_Metadata(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	data := []byte("contract body")

	hash, err := store.Store(context.Background(), data, "contract.pdf", "application/pdf", "B1")
	req.NoError(err)

	loaded, meta, err := store.Load(hash)
	req.NoError(err)
	req.Equal(data, loaded)
	req.Equal("contract.pdf", meta.Filename)
	req.Equal("application/pdf", meta.ContentType)
	req.Equal("B1", meta.Owner)
	req.Equal(int64(len(data)), meta.Size)
}

func TestBlobStore_Load_Unknown_Hash_Fails(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)

	_, _, err := store.Load("deadbeef")

	req.Error(err)
}
