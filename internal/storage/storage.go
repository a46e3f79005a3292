// Package storage keeps compiled resume documents in object storage.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// ErrObjectNotFound is returned by Get for an unknown key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores opaque blobs by key.
type ObjectStorage interface {
	// Put stores the content of r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens the object at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ResumeKey returns the object key of a compiled resume.
func ResumeKey(userID, artifactName string) string {
	return path.Join("resumes", sanitizeSegment(userID), sanitizeSegment(artifactName)+".pdf")
}

// validateKey rejects keys that could escape the storage root.
func validateKey(key string) error {
	if key == "" {
		return errors.New("empty object key")
	}
	clean := path.Clean("/" + key)
	if clean != "/"+key || strings.Contains(key, "\\") {
		return errors.Errorf("invalid object key %q", key)
	}
	return nil
}

func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
