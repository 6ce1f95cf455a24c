package services

import (
	"errors"
	"io/fs"
	"os"
)

// ContentStore is the read-only set of markdown documents, keyed by slug.
type ContentStore interface {
	// Read returns the raw document for slug, ErrNotFound when there is none,
	// or an *IOError when the store cannot be read.
	Read(slug string) ([]byte, error)
	// Slugs lists every document in enumeration order.
	Slugs() ([]string, error)
}

// FSStore is a flat directory of *.md files.
type FSStore struct {
	fsys fs.FS
}

func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

func NewDirStore(dir string) *FSStore {
	return NewFSStore(os.DirFS(dir))
}

func (s *FSStore) Read(slug string) ([]byte, error) {
	name, err := StorageName(slug)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (s *FSStore) Slugs() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, &IOError{Op: "readdir", Path: ".", Err: err}
	}
	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slug, ok := SlugFromName(e.Name()); ok {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}
