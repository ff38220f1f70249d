// Package storage keeps uploaded images in object storage.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for object keys that escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store is an object store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]string, error)
	URL(key string) string
}

// cleanKey rejects absolute keys and keys containing "..".
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(key), nil
}
