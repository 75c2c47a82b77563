// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Checkpoint records how far a translation run has progressed. It is written
// next to the output file after every chunk so an interrupted run can be
// resumed at the first untranslated paragraph.
type Checkpoint struct {
	// Source is the input HTML path.
	Source string `json:"source" yaml:"source"`

	// Output is the translated Markdown path.
	Output string `json:"output" yaml:"output"`

	// Model is the model identifier used for the run.
	Model string `json:"model" yaml:"model"`

	// ChunkSize is the chunk size in effect. Resuming with a different size
	// would not line up with the chunks already written.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// NextParagraph is the 1-indexed paragraph to resume from.
	NextParagraph int `json:"next_paragraph" yaml:"next_paragraph"`

	// TotalParagraphs is the paragraph count of the source Markdown.
	TotalParagraphs int `json:"total_paragraphs" yaml:"total_paragraphs"`

	// ChunksWritten counts chunks appended to the output, across resumes.
	ChunksWritten int `json:"chunks_written" yaml:"chunks_written"`

	// Complete is set once the last chunk has been written.
	Complete bool `json:"complete" yaml:"complete"`

	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
