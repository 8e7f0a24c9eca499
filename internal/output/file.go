package output

import (
	"fmt"
	"io"
	"os"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Open returns the destination for path. An empty path or "-" selects
// fallback, which is never closed. Any other path is created or truncated;
// missing parent directories are an error.
func Open(path string, fallback io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		if fallback == nil {
			return nil, fmt.Errorf("no default destination")
		}
		return nopCloser{fallback}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("can't open '%s': %w", path, err)
	}
	return f, nil
}
