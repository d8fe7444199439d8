package media

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// LocalStore keeps media under a root directory on disk
type LocalStore struct {
	root string
	mu   sync.Mutex
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) abs(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *LocalStore) Save(ctx context.Context, folder, name, mimeType string, data []byte) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	folder, err := cleanPath(folder)
	if err != nil {
		return Item{}, err
	}
	if name == "" || path.Base(name) != name {
		return Item{}, ErrInvalidPath
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dir := s.abs(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Item{}, err
	}
	final := name
	for n := 1; ; n++ {
		f, err := os.OpenFile(filepath.Join(dir, final), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			final = suffixed(name, n)
			continue
		}
		if err != nil {
			return Item{}, err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return Item{}, err
		}
		if err := f.Close(); err != nil {
			return Item{}, err
		}
		break
	}

	info, err := os.Stat(filepath.Join(dir, final))
	if err != nil {
		return Item{}, err
	}
	return newItem(folder, final, mimeType, info.Size(), info.ModTime()), nil
}

func (s *LocalStore) Query(ctx context.Context, folderPrefix string) ([]Item, error) {
	items := []Item{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		folder := path.Dir(rel)
		if !inFolder(folder, folderPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mime, err := mimetype.DetectFile(p)
		if err != nil {
			return err
		}
		items = append(items, newItem(folder, path.Base(rel), mime.String(), info.Size(), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *LocalStore) Open(ctx context.Context, p string) (io.ReadCloser, Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, Item{}, err
	}
	p, err := cleanPath(p)
	if err != nil {
		return nil, Item{}, err
	}
	full := s.abs(p)
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Item{}, ErrNotFound
	}
	if err != nil {
		return nil, Item{}, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, Item{}, ErrNotFound
	}
	mime, err := mimetype.DetectFile(full)
	if err != nil {
		f.Close()
		return nil, Item{}, err
	}
	return f, newItem(path.Dir(p), path.Base(p), mime.String(), info.Size(), info.ModTime()), nil
}
