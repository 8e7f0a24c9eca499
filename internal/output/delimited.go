package output

import (
	"fmt"
	"io"
	"sync"
)

const (
	// RecordDelimiter separates issues on the output stream.
	RecordDelimiter = "\x00"

	// ErrorDelimiter separates run errors on the error stream.
	ErrorDelimiter = "----\n"
)

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}

// DelimitedWriter writes payloads separated by a delimiter: nothing before
// the first payload, exactly one delimiter between two payloads and nothing
// after the last. Payloads are written verbatim, even when they contain the
// delimiter.
type DelimitedWriter struct {
	writer    io.Writer
	delimiter string
	mu        sync.Mutex
	written   bool
}

func NewDelimitedWriter(w io.Writer, delimiter string) (*DelimitedWriter, error) {
	if w == nil {
		return nil, fmt.Errorf("delimited writer destination must not be nil")
	}
	return &DelimitedWriter{writer: w, delimiter: delimiter}, nil
}

func (d *DelimitedWriter) WriteString(payload string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.written {
		if _, err := io.WriteString(d.writer, d.delimiter); err != nil {
			return err
		}
	}
	// The delimiter is owed before the next payload even if this write fails
	// part way; a retry must not glue two payloads together.
	d.written = true
	if _, err := io.WriteString(d.writer, payload); err != nil {
		return err
	}
	return flushIfPossible(d.writer)
}
