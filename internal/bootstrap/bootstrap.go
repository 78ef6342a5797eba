// Package bootstrap prepares the source and replica folders before the first pass.
package bootstrap

import (
	"fmt"
	"io"

	"github.com/CageChen/foldersync/internal/fs"
)

// SeedFile is a demo file written into a freshly created source folder.
type SeedFile struct {
	Name    string
	Content string
}

// SeedFiles are written, in order, when the source folder has to be created.
var SeedFiles = []SeedFile{
	{Name: "Source1.txt", Content: "Hello"},
	{Name: "Source2.txt", Content: "Veeam"},
	{Name: "Source3.txt", Content: "How are you doing!?"},
}

// Prepare creates whichever of the two roots is missing, printing progress to
// out. A new source folder gets the seed files when seed is set. Existing
// folders are left untouched.
func Prepare(out io.Writer, source, replica fs.WriteFS, seed bool) error {
	missing, err := isMissing(source)
	if err != nil {
		return fmt.Errorf("check source folder %s: %w", source.Root(), err)
	}
	if missing {
		fmt.Fprintf(out, "Source directory does not exist. Creating: %s\n", source.Root())
		if err := source.MkdirAll(""); err != nil {
			return fmt.Errorf("create source folder %s: %w", source.Root(), err)
		}
		if seed {
			if err := writeSeedFiles(out, source); err != nil {
				return err
			}
		}
	}

	missing, err = isMissing(replica)
	if err != nil {
		return fmt.Errorf("check replica folder %s: %w", replica.Root(), err)
	}
	if missing {
		fmt.Fprintf(out, "Destination directory does not exist. Creating: %s\n", replica.Root())
		if err := replica.MkdirAll(""); err != nil {
			return fmt.Errorf("create replica folder %s: %w", replica.Root(), err)
		}
	}

	fmt.Fprintln(out, "Both directories are now valid. Proceeding with sync...")
	return nil
}

// isMissing reports whether the tree root does not exist yet. A root that
// exists but is not a directory is an error.
func isMissing(tree fs.WriteFS) (bool, error) {
	info, err := tree.Stat("")
	switch {
	case err == nil && info.IsDir:
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%s is not a directory", tree.Root())
	case fs.IsNotExist(err):
		return true, nil
	default:
		return false, err
	}
}

func writeSeedFiles(out io.Writer, source fs.WriteFS) error {
	fmt.Fprintln(out, "Creating source files...")
	for _, f := range SeedFiles {
		if err := source.WriteFile(f.Name, []byte(f.Content)); err != nil {
			return fmt.Errorf("write seed file %s: %w", source.Path(f.Name), err)
		}
	}
	fmt.Fprintln(out, "Source files created successfully.")
	return nil
}
