package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ccsemgrep/internal/codeclimate"
)

// Streams owns the issue stream and the error stream of one analysis.
type Streams struct {
	issues  *DelimitedWriter
	errs    *DelimitedWriter
	closers []io.Closer

	// Strict checks every issue structurally and validates its encoding
	// against the issue schema. An issue that fails either check is written
	// to the error stream instead.
	Strict bool
}

func NewStreams(issues, errs io.WriteCloser) (*Streams, error) {
	if issues == nil || errs == nil {
		return nil, fmt.Errorf("output streams must not be nil")
	}
	iw, err := NewDelimitedWriter(issues, RecordDelimiter)
	if err != nil {
		return nil, err
	}
	ew, err := NewDelimitedWriter(errs, ErrorDelimiter)
	if err != nil {
		return nil, err
	}
	return &Streams{
		issues:  iw,
		errs:    ew,
		closers: []io.Closer{issues, errs},
	}, nil
}

// EncodeIssue returns the compact JSON form of issue without a trailing newline.
func EncodeIssue(issue codeclimate.Issue) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(issue); err != nil {
		return nil, fmt.Errorf("encode issue %s: %w", issue.CheckName, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (s *Streams) WriteIssue(issue codeclimate.Issue) error {
	if s == nil {
		return fmt.Errorf("output streams are nil")
	}
	b, err := EncodeIssue(issue)
	if err != nil {
		return s.WriteError(err)
	}
	if s.Strict {
		if err := issue.Validate(); err != nil {
			return s.WriteError(fmt.Errorf("dropped issue %s at %s: %w", issue.CheckName, issue.Location.Path, err))
		}
		if err := codeclimate.ValidateJSON(b); err != nil {
			return s.WriteError(fmt.Errorf("dropped issue %s at %s: %w", issue.CheckName, issue.Location.Path, err))
		}
	}
	if err := s.issues.WriteString(string(b)); err != nil {
		return fmt.Errorf("write issue: %w", err)
	}
	return nil
}

func (s *Streams) WriteError(err error) error {
	if s == nil {
		return fmt.Errorf("output streams are nil")
	}
	if err == nil {
		return nil
	}
	if werr := s.errs.WriteString(err.Error()); werr != nil {
		return fmt.Errorf("write error: %w", werr)
	}
	return nil
}

func (s *Streams) Close() error {
	if s == nil {
		return fmt.Errorf("output streams are nil")
	}
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", c, err))
		}
	}
	s.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("errors closing streams: %w", errors.Join(errs...))
	}
	return nil
}
