package reconciler

import (
	"path/filepath"

	"github.com/CageChen/foldersync/internal/fs"
)

// copyTree walks the source depth-first and brings every replica file and
// directory up to date. Directories are visited in the same order a recursive
// walk would use: a directory's files first, then each subdirectory in full
// before its next sibling.
func (p *pass) copyTree() {
	stack := []string{""}
	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if rel != "" && !p.ensureReplicaDir(rel) {
			continue
		}

		entries, err := p.source.ReadDir(rel)
		if err != nil {
			p.fail(KindList, p.source.Path(rel), "Error processing directory", err)
			continue
		}
		files, dirs := splitEntries(entries)
		for _, name := range files {
			p.syncFile(filepath.Join(rel, name))
		}
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, filepath.Join(rel, dirs[i]))
		}
	}
}

// ensureReplicaDir makes sure rel exists as a directory in the replica and
// reports whether its contents should be visited.
func (p *pass) ensureReplicaDir(rel string) bool {
	srcPath := p.source.Path(rel)

	info, err := p.replica.Stat(rel)
	switch {
	case err == nil && info.IsDir:
		return true
	case err == nil:
		p.fail(KindTypeMismatch, srcPath, "Error processing directory", ErrTypeMismatch)
		return false
	case !fs.IsNotExist(err):
		p.fail(KindCreateDir, srcPath, "Error processing directory", err)
		return false
	}

	if err := p.replica.MkdirAll(rel); err != nil {
		p.fail(KindCreateDir, srcPath, "Error processing directory", err)
		return false
	}
	p.record(Action{Kind: ActionCreateDir, Target: p.replica.Path(rel)})
	return true
}

// syncFile copies rel into the replica unless the replica already holds the
// same bytes.
func (p *pass) syncFile(rel string) {
	srcPath := p.source.Path(rel)

	info, err := p.replica.Stat(rel)
	switch {
	case err == nil && info.IsDir:
		p.fail(KindTypeMismatch, srcPath, "Error copying", ErrTypeMismatch)
		return
	case err == nil:
		same, err := sameContent(p.source, p.replica, rel)
		if err != nil {
			p.fail(KindCompare, srcPath, "Error copying", err)
			return
		}
		if same {
			return
		}
	case !fs.IsNotExist(err):
		p.fail(KindCompare, srcPath, "Error copying", err)
		return
	}

	if err := copyFile(p.source, p.replica, rel); err != nil {
		p.fail(KindCopy, srcPath, "Error copying", err)
		return
	}
	p.record(Action{Kind: ActionCopy, Source: srcPath, Target: p.replica.Path(rel)})
}

// copyFile streams rel from src to dst. The replica file is only replaced
// once the whole source has been read.
func copyFile(src fs.FileSystem, dst fs.WriteFS, rel string) error {
	in, err := src.Open(rel)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	return dst.Replace(rel, in)
}
