package reporter

import (
	"io"
	"os"
	"path/filepath"

	"statement-categorizer/pkg/errors"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenOutput returns the destination of a report. An empty path or "-"
// means stdout, which is never closed. A nil stdout uses os.Stdout.
func OpenOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return nopCloser{Writer: stdout}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return file, nil
}
