package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid JPEG header is enough for sniffing
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	item, err := store.Save(ctx, CameraFolder, "20240101_120000.jpg", "", jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, "/media/Pictures/MyCamera/20240101_120000.jpg", item.URI)
	assert.Equal(t, "image/jpeg", item.MimeType)
	assert.Equal(t, int64(len(jpegBytes)), item.Size)

	r, opened, err := store.Open(ctx, item.URI)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
	assert.Equal(t, item.Name, opened.Name)
	assert.Equal(t, CameraFolder, opened.Folder)
}

func TestLocalStoreNameCollision(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Save(ctx, CameraFolder, "shot.jpg", "image/jpeg", jpegBytes)
	require.NoError(t, err)
	second, err := store.Save(ctx, CameraFolder, "shot.jpg", "image/jpeg", jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, "shot.jpg", first.Name)
	assert.Equal(t, "shot (1).jpg", second.Name)
}

func TestLocalStoreQueryNewestFirst(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	older, err := store.Save(ctx, CameraFolder, "a.jpg", "", jpegBytes)
	require.NoError(t, err)
	newer, err := store.Save(ctx, CameraFolder, "b.jpg", "", jpegBytes)
	require.NoError(t, err)
	_, err = store.Save(ctx, "Pictures/Other", "c.jpg", "", jpegBytes)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "Pictures", "MyCamera", older.Name), base, base))
	require.NoError(t, os.Chtimes(filepath.Join(root, "Pictures", "MyCamera", newer.Name), base.Add(time.Minute), base.Add(time.Minute)))

	items, err := store.Query(ctx, CameraFolder)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b.jpg", items[0].Name)
	assert.Equal(t, "a.jpg", items[1].Name)
	assert.Equal(t, "image/jpeg", items[0].MimeType)
}

func TestLocalStoreQueryEmpty(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	items, err := store.Query(context.Background(), CameraFolder)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestLocalStoreRejectsEscapes(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = store.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = store.Save(ctx, CameraFolder, "../x.jpg", "", jpegBytes)
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, _, err = store.Open(ctx, "Pictures/MyCamera/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}
