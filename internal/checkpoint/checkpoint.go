// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists translation progress in a YAML sidecar next to
// the output file (OUTPUT.md.progress.yaml) so that --resume can continue an
// interrupted run at the first untranslated paragraph.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mdtranslate/pkg/types"
)

// Suffix is appended to the output path to name the sidecar.
const Suffix = ".progress.yaml"

var (
	// ErrNotFound is returned by Load when no sidecar exists.
	ErrNotFound = errors.New("no checkpoint found")

	// ErrChunkSizeMismatch is returned by ResumeFrom when the checkpoint was
	// written with a different chunk size than the current run uses.
	ErrChunkSizeMismatch = errors.New("checkpoint chunk size differs from current chunk size")

	// ErrSourceMismatch is returned by ResumeFrom when the checkpoint belongs
	// to another input or output file.
	ErrSourceMismatch = errors.New("checkpoint belongs to a different run")
)

// now is replaced in tests.
var now = time.Now

// Path returns the sidecar path for an output file.
func Path(output string) string {
	return output + Suffix
}

// Load reads the sidecar for output.
func Load(output string) (*types.Checkpoint, error) {
	path := Path(output)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp types.Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return &cp, nil
}

// Save writes cp to the sidecar for cp.Output, stamping UpdatedAt. The file
// is written to a temporary name and renamed so a crash never leaves a
// truncated checkpoint.
func Save(cp *types.Checkpoint) error {
	cp.UpdatedAt = now().UTC().Truncate(time.Second)
	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	path := Path(cp.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing checkpoint: %w", err)
	}
	return nil
}

// Remove deletes the sidecar for output. A missing sidecar is not an error.
func Remove(output string) error {
	if err := os.Remove(Path(output)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

// Run identifies the run a checkpoint is checked against.
type Run struct {
	Source    string
	Output    string
	ChunkSize int
}

// ResumeFrom returns the paragraph a resumed run starts at. It refuses a
// checkpoint written for another source or output file, or with another
// chunk size. The second result is false when the checkpoint is already
// complete and there is nothing left to do.
func ResumeFrom(cp *types.Checkpoint, run Run) (int, bool, error) {
	if !samePath(cp.Source, run.Source) {
		return 0, false, fmt.Errorf("%w: checkpoint source %q, run source %q", ErrSourceMismatch, cp.Source, run.Source)
	}
	if !samePath(cp.Output, run.Output) {
		return 0, false, fmt.Errorf("%w: checkpoint output %q, run output %q", ErrSourceMismatch, cp.Output, run.Output)
	}
	if cp.ChunkSize != run.ChunkSize {
		return 0, false, fmt.Errorf("%w: checkpoint has %d, run has %d", ErrChunkSizeMismatch, cp.ChunkSize, run.ChunkSize)
	}
	if cp.Complete {
		return cp.NextParagraph, false, nil
	}
	if cp.NextParagraph < 1 {
		return 1, true, nil
	}
	return cp.NextParagraph, true, nil
}

// samePath compares two paths after making them absolute.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Tracker updates a checkpoint after every written chunk.
type Tracker struct {
	cp *types.Checkpoint
}

// NewTracker starts tracking a run. Prior carries ChunksWritten over from a
// resumed checkpoint and may be nil.
func NewTracker(source, output, model string, chunkSize int, prior *types.Checkpoint) *Tracker {
	cp := &types.Checkpoint{
		Source:    source,
		Output:    output,
		Model:     model,
		ChunkSize: chunkSize,
	}
	if prior != nil {
		cp.ChunksWritten = prior.ChunksWritten
	}
	return &Tracker{cp: cp}
}

// Begin records that a run is starting at paragraph start, replacing any
// state left by an earlier run of the same output.
func (t *Tracker) Begin(start, total int) error {
	t.cp.NextParagraph = start
	t.cp.TotalParagraphs = total
	t.cp.Complete = false
	return Save(t.cp)
}

// Record notes that paragraphs up to last were written out of total.
func (t *Tracker) Record(last, total int) error {
	t.cp.NextParagraph = last + 1
	t.cp.TotalParagraphs = total
	t.cp.ChunksWritten++
	t.cp.Complete = last >= total
	return Save(t.cp)
}

// Finish marks the run complete. next is the first paragraph not written.
func (t *Tracker) Finish(next, total int) error {
	t.cp.NextParagraph = next
	t.cp.TotalParagraphs = total
	t.cp.Complete = true
	return Save(t.cp)
}

// Checkpoint returns the tracked state.
func (t *Tracker) Checkpoint() types.Checkpoint {
	return *t.cp
}
