package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/iterator"
)

// BucketStore keeps media as objects in a Cloud Storage bucket
type BucketStore struct {
	bucket *storage.BucketHandle
}

// NewBucketStore creates a new BucketStore
func NewBucketStore(bucket *storage.BucketHandle) *BucketStore {
	return &BucketStore{bucket: bucket}
}

func itemFromAttrs(attrs *storage.ObjectAttrs) Item {
	return newItem(path.Dir(attrs.Name), path.Base(attrs.Name), attrs.ContentType, attrs.Size, attrs.Created)
}

func (s *BucketStore) Save(ctx context.Context, folder, name, mimeType string, data []byte) (Item, error) {
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

	final := name
	for n := 1; ; n++ {
		_, err := s.bucket.Object(path.Join(folder, final)).Attrs(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			break
		}
		if err != nil {
			return Item{}, fmt.Errorf("stat %s: %w", final, err)
		}
		final = suffixed(name, n)
	}

	obj := s.bucket.Object(path.Join(folder, final)).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return Item{}, err
	}
	if err := w.Close(); err != nil {
		return Item{}, err
	}
	return itemFromAttrs(w.Attrs()), nil
}

func (s *BucketStore) Query(ctx context.Context, folderPrefix string) ([]Item, error) {
	items := []Item{}
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: folderPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if attrs.Name == "" || attrs.Name[len(attrs.Name)-1] == '/' {
			continue
		}
		items = append(items, itemFromAttrs(attrs))
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *BucketStore) Open(ctx context.Context, p string) (io.ReadCloser, Item, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, Item{}, err
	}
	r, err := s.bucket.Object(p).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, Item{}, ErrNotFound
	}
	if err != nil {
		return nil, Item{}, err
	}
	item := newItem(path.Dir(p), path.Base(p), r.Attrs.ContentType, r.Attrs.Size, r.Attrs.LastModified)
	return r, item, nil
}
