// Package storage uploads finished clips to an object store and builds their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid object key")

// ObjectStore is a durable home for finished clips.
type ObjectStore interface {
	// Put stores data under key, overwriting any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	Ping(ctx context.Context) error
}

// ClipKey is the deterministic object key for a job's output.
func ClipKey(jobID string) string {
	return fmt.Sprintf("clips/clip-%s.mp4", jobID)
}

// validateKey rejects keys that are absolute or escape the store root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
