package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStorage keeps objects under a local directory. It backs the local
// chat command and deployments without an object store.
type FileStorage struct {
	root string
}

// NewFileStorage creates the root directory if needed.
func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create storage root %s", root)
	}
	return &FileStorage{root: root}, nil
}

func (f *FileStorage) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, filepath.FromSlash(key)), nil
}

// Put implements ObjectStorage. The object is written to a temporary file
// and renamed into place.
func (f *FileStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.Wrapf(err, "create directory for %s", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), dst), "store %s", key)
}

// Get implements ObjectStorage.
func (f *FileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.pathFor(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", key)
	}
	return file, nil
}

// Delete implements ObjectStorage.
func (f *FileStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
