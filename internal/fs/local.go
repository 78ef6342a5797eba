package fs

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644

	tempPrefix = ".foldersync-"
)

// BillyFS implements WriteFS on top of a billy.Filesystem whose root is the
// tree root. Errors from the underlying filesystem are returned unchanged.
type BillyFS struct {
	root string
	fs   billy.Filesystem
}

// NewBillyFS wraps fs, displaying paths relative to root.
func NewBillyFS(root string, fs billy.Filesystem) *BillyFS {
	return &BillyFS{root: root, fs: fs}
}

// NewLocalFS creates a BillyFS rooted at the given directory on local disk.
// The directory does not need to exist yet.
func NewLocalFS(root string) *BillyFS {
	return NewBillyFS(root, osfs.New(root))
}

// NewMemFS creates an in-memory BillyFS rooted at root inside mem. Several
// trees can share one mem; a nil mem gets a fresh one.
func NewMemFS(mem billy.Filesystem, root string) (*BillyFS, error) {
	if mem == nil {
		mem = memfs.New()
	}
	chrooted, err := mem.Chroot(root)
	if err != nil {
		return nil, err
	}
	return NewBillyFS(root, chrooted), nil
}

func (b *BillyFS) rel(path string) string {
	if path == "" || path == "." {
		return ""
	}
	return filepath.Clean(path)
}

// Root returns the display root of the tree.
func (b *BillyFS) Root() string {
	return b.root
}

// Path joins rel onto the display root.
func (b *BillyFS) Path(rel string) string {
	return filepath.Join(b.root, b.rel(rel))
}

// Open opens the file at path for reading.
func (b *BillyFS) Open(path string) (io.ReadCloser, error) {
	return b.fs.Open(b.rel(path))
}

// ReadFile reads the contents of the file at the given path relative to the root.
func (b *BillyFS) ReadFile(path string) ([]byte, error) {
	return util.ReadFile(b.fs, b.rel(path))
}

// Stat returns metadata for the file or directory at the given path relative to the root.
func (b *BillyFS) Stat(path string) (FileInfo, error) {
	info, err := b.fs.Stat(b.rel(path))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ReadDir lists the immediate children of the directory at the given path,
// sorted by name.
func (b *BillyFS) ReadDir(path string) ([]DirEntry, error) {
	infos, err := b.fs.ReadDir(b.rel(path))
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(infos))
	for i, info := range infos {
		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			// follow the link; a dangling one stays a file and fails on open
			if target, err := b.fs.Stat(b.fs.Join(b.rel(path), info.Name())); err == nil {
				isDir = target.IsDir()
			}
		}
		result[i] = DirEntry{
			Name:  info.Name(),
			IsDir: isDir,
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Replace streams r into a temp file next to path and renames it into place.
// On any error the temp file is removed and path is left as it was.
func (b *BillyFS) Replace(path string, r io.Reader) (err error) {
	target := b.rel(path)
	tmp, err := b.fs.TempFile(filepath.Dir(target), tempPrefix)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = b.fs.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	// temp files are created 0600
	if ch, ok := b.fs.(billy.Change); ok {
		_ = ch.Chmod(tmp.Name(), filePerm)
	}
	return b.fs.Rename(tmp.Name(), target)
}

// WriteFile writes data to path, replacing any previous content.
func (b *BillyFS) WriteFile(path string, data []byte) error {
	return util.WriteFile(b.fs, b.rel(path), data, filePerm)
}

// MkdirAll creates the directory at path along with any missing parents.
func (b *BillyFS) MkdirAll(path string) error {
	return b.fs.MkdirAll(b.rel(path), dirPerm)
}

// Remove deletes a single file or empty directory.
func (b *BillyFS) Remove(path string) error {
	return b.fs.Remove(b.rel(path))
}

// RemoveAll deletes path and everything below it.
func (b *BillyFS) RemoveAll(path string) error {
	return util.RemoveAll(b.fs, b.rel(path))
}
