// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdtranslate/pkg/types"
)

func fixedClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
	return at
}

func TestPath(t *testing.T) {
	assert.Equal(t, "out/book.md.progress.yaml", Path("out/book.md"))
}

func TestSaveLoad(t *testing.T) {
	at := fixedClock(t)
	output := filepath.Join(t.TempDir(), "nested", "book.md")
	cp := &types.Checkpoint{
		Source:          "book.html",
		Output:          output,
		Model:           "mlx-community/plamo-2-translate",
		ChunkSize:       1000,
		NextParagraph:   42,
		TotalParagraphs: 120,
		ChunksWritten:   7,
	}
	require.NoError(t, Save(cp))

	data, err := os.ReadFile(Path(output))
	require.NoError(t, err)
	assert.Contains(t, string(data), "next_paragraph: 42")
	assert.Contains(t, string(data), "chunk_size: 1000")

	got, err := Load(output)
	require.NoError(t, err)
	assert.Equal(t, 42, got.NextParagraph)
	assert.Equal(t, 120, got.TotalParagraphs)
	assert.Equal(t, "book.html", got.Source)
	assert.True(t, got.UpdatedAt.Equal(at))

	_, err = os.Stat(Path(output) + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.md"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Malformed(t *testing.T) {
	output := filepath.Join(t.TempDir(), "book.md")
	require.NoError(t, os.WriteFile(Path(output), []byte("next_paragraph: [oops"), 0o644))

	_, err := Load(output)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, strings.Contains(err.Error(), "parsing checkpoint"))
}

func TestRemove(t *testing.T) {
	output := filepath.Join(t.TempDir(), "book.md")
	require.NoError(t, Remove(output), "missing sidecar is fine")

	require.NoError(t, Save(&types.Checkpoint{Output: output}))
	require.NoError(t, Remove(output))
	_, err := Load(output)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResumeFrom(t *testing.T) {
	run := Run{Source: "in/book.html", Output: "out/book.md", ChunkSize: 500}
	at := func(cp types.Checkpoint) types.Checkpoint {
		cp.Source, cp.Output = run.Source, run.Output
		return cp
	}

	tests := []struct {
		name string
		cp   types.Checkpoint
		run  Run
		want int
		more bool
		err  error
	}{
		{"in progress", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 12}), run, 12, true, nil},
		{"complete", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 30, Complete: true}), run, 30, false, nil},
		{"unset next paragraph", at(types.Checkpoint{ChunkSize: 500}), run, 1, true, nil},
		{"chunk size changed", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 12}), Run{Source: run.Source, Output: run.Output, ChunkSize: 1000}, 0, false, ErrChunkSizeMismatch},
		{"other source", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 12}), Run{Source: "in/other.html", Output: run.Output, ChunkSize: 500}, 0, false, ErrSourceMismatch},
		{"other output", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 12}), Run{Source: run.Source, Output: "out/copy.md", ChunkSize: 500}, 0, false, ErrSourceMismatch},
		{"no source recorded", types.Checkpoint{Output: run.Output, ChunkSize: 500, NextParagraph: 12}, run, 0, false, ErrSourceMismatch},
		{"equivalent paths", at(types.Checkpoint{ChunkSize: 500, NextParagraph: 7}), Run{Source: "./in/../in/book.html", Output: "out/./book.md", ChunkSize: 500}, 7, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, more, err := ResumeFrom(&tt.cp, tt.run)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.more, more)
		})
	}
}

func TestTracker_BeginReplacesEarlierState(t *testing.T) {
	output := filepath.Join(t.TempDir(), "book.md")
	require.NoError(t, Save(&types.Checkpoint{
		Source: "book.html", Output: output, ChunkSize: 800,
		NextParagraph: 21, TotalParagraphs: 20, ChunksWritten: 9, Complete: true,
	}))

	tr := NewTracker("book.html", output, "m", 800, nil)
	require.NoError(t, tr.Begin(1, 20))

	cp, err := Load(output)
	require.NoError(t, err)
	assert.False(t, cp.Complete)
	assert.Equal(t, 1, cp.NextParagraph)
	assert.Equal(t, 0, cp.ChunksWritten)
	assert.Equal(t, "book.html", tr.Checkpoint().Source)
	assert.Equal(t, 20, tr.Checkpoint().TotalParagraphs)
}

func TestTracker(t *testing.T) {
	fixedClock(t)
	output := filepath.Join(t.TempDir(), "book.md")
	prior := &types.Checkpoint{ChunksWritten: 3}

	tr := NewTracker("book.html", output, "m", 800, prior)
	require.NoError(t, tr.Record(10, 20))

	cp, err := Load(output)
	require.NoError(t, err)
	assert.Equal(t, 11, cp.NextParagraph)
	assert.Equal(t, 4, cp.ChunksWritten)
	assert.False(t, cp.Complete)

	require.NoError(t, tr.Record(20, 20))
	cp, err = Load(output)
	require.NoError(t, err)
	assert.True(t, cp.Complete)
	assert.Equal(t, 21, cp.NextParagraph)
	assert.Equal(t, 5, tr.Checkpoint().ChunksWritten)
}

func TestTracker_FinishWithoutChunks(t *testing.T) {
	output := filepath.Join(t.TempDir(), "book.md")
	tr := NewTracker("book.html", output, "m", 800, nil)
	require.NoError(t, tr.Finish(9, 8))

	cp, err := Load(output)
	require.NoError(t, err)
	assert.True(t, cp.Complete)
	assert.Equal(t, 9, cp.NextParagraph)
	assert.Equal(t, 0, cp.ChunksWritten)
}
