// Package backup exports the application's collections to JSON files kept in a backup store.
package backup

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a backup object does not exist.
var ErrNotFound = errors.New("backup not found")

// Object describes a stored backup file.
type Object struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a backend that holds backup files under folders.
// Keys are slash separated: "<folder>/<name>".
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// EnsureFolder reuses the folder if it exists and creates it otherwise.
	EnsureFolder(ctx context.Context, folder string) error

	// Upload stores size bytes read from r under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64) error

	// List returns the objects stored directly under folder.
	List(ctx context.Context, folder string) ([]Object, error)

	// Delete removes the object. Missing objects yield ErrNotFound.
	Delete(ctx context.Context, key string) error

	// Download writes the object to w. Missing objects yield ErrNotFound.
	Download(ctx context.Context, key string, w io.Writer) error
}

func objectKey(folder, name string) string {
	return strings.Trim(folder, "/") + "/" + name
}

func baseName(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

// sortNewestFirst orders by name descending; names embed a sortable UTC timestamp.
func sortNewestFirst(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name > objects[j].Name
	})
}
