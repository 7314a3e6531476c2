// Package store abstracts the remote artifact store holding our conda
// channels and documentation trees. The production backend is S3; tests use
// an in-memory implementation, and dry runs wrap any backend to suppress
// mutations while keeping reads live.
package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrAlreadyExists is returned by Upload when the remote object exists and
// overwriting was not requested. Callers must bump the build number instead
// of replacing a published artifact.
var ErrAlreadyExists = errors.New("remote object already exists")

// ErrNotFound is returned when a remote object does not exist.
var ErrNotFound = errors.New("remote object not found")

// Store lists, uploads and deletes remote artifacts. Remote paths are full
// URLs (channel URL + architecture + basename) or server-relative paths;
// implementations map them onto their storage layout.
type Store interface {
	// List returns the basenames of objects stored under the channel whose
	// basename starts with prefix. An empty result is not an error.
	List(ctx context.Context, channelURL, prefix string) ([]string, error)

	// Upload copies a local file to the remote path. When overwrite is
	// false and the remote object exists, Upload returns ErrAlreadyExists
	// without transferring anything.
	Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error

	// Exists reports whether the remote path holds an object.
	Exists(ctx context.Context, remotePath string) (bool, error)

	// Delete removes the remote object. Deleting a missing object returns
	// ErrNotFound.
	Delete(ctx context.Context, remotePath string) error
}

// objectKey maps a remote URL (or server-relative path) onto a normalized
// storage key: the URL path without its leading slash.
func objectKey(remote string) string {
	if u, err := url.Parse(remote); err == nil && u.Host != "" {
		remote = u.Path
	}
	return strings.TrimPrefix(remote, "/")
}
