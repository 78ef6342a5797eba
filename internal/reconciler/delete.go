package reconciler

import (
	"path/filepath"

	"github.com/CageChen/foldersync/internal/fs"
)

// deleteOrphans walks the replica depth-first and removes every file and
// directory that has no counterpart in the source. An orphaned directory is
// removed as a whole and never descended into.
func (p *pass) deleteOrphans() {
	stack := []string{""}
	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if rel != "" && !p.keepReplicaDir(rel) {
			continue
		}

		entries, err := p.replica.ReadDir(rel)
		if err != nil {
			p.fail(KindList, p.replica.Path(rel), "Error deleting directory", err)
			continue
		}
		files, dirs := splitEntries(entries)
		for _, name := range files {
			p.pruneFile(filepath.Join(rel, name))
		}
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, filepath.Join(rel, dirs[i]))
		}
	}
}

// keepReplicaDir deletes rel from the replica when the source lacks it and
// reports whether the directory survived and should be descended into.
func (p *pass) keepReplicaDir(rel string) bool {
	path := p.replica.Path(rel)

	info, err := p.source.Stat(rel)
	switch {
	case err == nil && info.IsDir:
		return true
	case err == nil:
		// type change, already reported by the copy walk
		return false
	case !fs.IsNotExist(err):
		p.fail(KindDelete, path, "Error deleting directory", err)
		return false
	}

	if err := p.replica.RemoveAll(rel); err != nil {
		p.fail(KindDelete, path, "Error deleting directory", err)
		return false
	}
	p.record(Action{Kind: ActionDeleteDir, Target: path})
	return false
}

// pruneFile deletes rel from the replica when the source has no file by that
// name. Anything other than a clean not-exist answer keeps the file.
func (p *pass) pruneFile(rel string) {
	path := p.replica.Path(rel)

	_, err := p.source.Stat(rel)
	switch {
	case err == nil:
		// present in the source, or a type change the copy walk already reported
		return
	case !fs.IsNotExist(err):
		p.fail(KindDelete, path, "Error deleting", err)
		return
	}

	if err := p.replica.Remove(rel); err != nil {
		p.fail(KindDelete, path, "Error deleting", err)
		return
	}
	p.record(Action{Kind: ActionDelete, Target: path})
}
