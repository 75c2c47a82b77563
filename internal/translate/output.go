// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"fmt"
	"os"
	"path/filepath"
)

// outputFile appends translated chunks to the destination file. The file is
// opened and closed around every write so it is complete on disk between
// chunks.
type outputFile struct {
	path string
	// fresh is true when the run starts at paragraph 1. The file is then
	// truncated up front and the first chunk is written without a leading
	// separator.
	fresh   bool
	written int
}

func newOutputFile(path string, fresh bool) *outputFile {
	return &outputFile{path: path, fresh: fresh}
}

// init creates parent directories and, for a fresh run, empties the file.
func (o *outputFile) init() error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if o.fresh {
		if err := os.WriteFile(o.path, nil, 0o644); err != nil {
			return fmt.Errorf("truncating %s: %w", o.path, err)
		}
	}
	return nil
}

// append writes text, preceded by the paragraph separator unless it is the
// first chunk of a fresh run.
func (o *outputFile) append(text string) error {
	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", o.path, err)
	}

	data := text
	if !o.fresh || o.written > 0 {
		data = ParagraphSeparator + text
	}
	if _, err := f.WriteString(data); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", o.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", o.path, err)
	}
	o.written++
	return nil
}
