// Package fs provides the filesystem abstractions the reconciler walks: a read-only
// view for the source tree and a writable view for the replica tree.
package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"time"
)

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// DirEntry represents a single directory entry. Symbolic links are
// classified by what they point to.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem is the read-only side of a tree. All paths are relative to Root;
// "" and "." name the root itself.
type FileSystem interface {
	Root() string
	Path(rel string) string
	Open(path string) (io.ReadCloser, error)
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}

// WriteFS is a FileSystem that can also be mutated.
type WriteFS interface {
	FileSystem
	// Replace writes the contents of r to path. The data goes to a temporary
	// sibling first and is renamed over path only once fully written, so a
	// failed write leaves any previous file intact.
	Replace(path string, r io.Reader) error
	WriteFile(path string, data []byte) error
	MkdirAll(path string) error
	Remove(path string) error
	RemoveAll(path string) error
}

// IsNotExist reports whether err says the path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
