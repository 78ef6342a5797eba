package reconciler

import (
	"bytes"
	"errors"
	"io"

	"github.com/CageChen/foldersync/internal/fs"
)

const compareChunk = 32 * 1024

// sameContent reports whether rel has identical bytes in both trees.
// Timestamps are never consulted.
func sameContent(a, b fs.FileSystem, rel string) (bool, error) {
	ai, err := a.Stat(rel)
	if err != nil {
		return false, err
	}
	bi, err := b.Stat(rel)
	if err != nil {
		return false, err
	}
	if ai.Size != bi.Size {
		return false, nil
	}

	ar, err := a.Open(rel)
	if err != nil {
		return false, err
	}
	defer func() { _ = ar.Close() }()

	br, err := b.Open(rel)
	if err != nil {
		return false, err
	}
	defer func() { _ = br.Close() }()

	return equalReaders(ar, br)
}

// equalReaders compares two streams chunk by chunk until both end.
func equalReaders(a, b io.Reader) (bool, error) {
	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)
	for {
		na, errA := io.ReadFull(a, bufA)
		nb, errB := io.ReadFull(b, bufB)

		doneA, err := readDone(errA)
		if err != nil {
			return false, err
		}
		doneB, err := readDone(errB)
		if err != nil {
			return false, err
		}

		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if doneA || doneB {
			return doneA && doneB, nil
		}
	}
}

// readDone maps an io.ReadFull error to end-of-stream or a real failure.
func readDone(err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true, nil
	default:
		return false, err
	}
}
