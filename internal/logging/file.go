package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink appends every write to a log file, creating its directory on
// demand. The file is reopened per write so it can be moved or deleted while
// the process runs. A failed write is reported to its report writer and then
// dropped; callers never see an error.
type FileSink struct {
	path   string
	report io.Writer
}

// NewFileSink creates a sink appending to path and reporting failures to report.
func NewFileSink(path string, report io.Writer) *FileSink {
	return &FileSink{path: path, report: report}
}

func (s *FileSink) Write(p []byte) (int, error) {
	if err := s.append(p); err != nil && s.report != nil {
		fmt.Fprintf(s.report, "Logging error: %v\n", err)
	}
	return len(p), nil
}

func (s *FileSink) append(p []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
