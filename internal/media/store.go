// Package media stores captured photos and lists them back for the feed.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// CameraFolder is where captured photos are saved
const CameraFolder = "Pictures/MyCamera"

// URIPrefix is prepended to an item's path to form its URI
const URIPrefix = "/media/"

var (
	// ErrNotFound is returned when no item exists at a path
	ErrNotFound = errors.New("media: item not found")
	// ErrInvalidPath is returned for paths escaping the store
	ErrInvalidPath = errors.New("media: invalid path")
)

// Item describes one stored media file
type Item struct {
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	URI       string    `json:"uri"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Path returns folder/name
func (i Item) Path() string {
	return path.Join(i.Folder, i.Name)
}

// Store saves and lists media files
type Store interface {
	// Save writes data as folder/name. An existing name gets a numeric suffix.
	Save(ctx context.Context, folder, name, mimeType string, data []byte) (Item, error)
	// Query lists items whose folder starts with folderPrefix, newest first
	Query(ctx context.Context, folderPrefix string) ([]Item, error)
	// Open returns a reader for the item at folder/name
	Open(ctx context.Context, p string) (io.ReadCloser, Item, error)
}

func newItem(folder, name, mimeType string, size int64, created time.Time) Item {
	p := path.Join(folder, name)
	return Item{
		Name:      name,
		Folder:    folder,
		URI:       URIPrefix + p,
		MimeType:  mimeType,
		Size:      size,
		CreatedAt: created,
	}
}

// cleanPath normalises a slash separated store path and rejects escapes
func cleanPath(p string) (string, error) {
	p = strings.TrimPrefix(p, URIPrefix)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// suffixed returns "name (n).ext"
func suffixed(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Name > items[j].Name
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func inFolder(folder, prefix string) bool {
	return strings.HasPrefix(folder, strings.TrimSuffix(prefix, "/"))
}
