// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"strings"
	"unicode/utf8"
)

// ParagraphSeparator separates paragraphs in the source Markdown and joins
// translated chunks in the output.
const ParagraphSeparator = "\n\n"

// Chunk is a run of consecutive paragraphs sent to the model in one call.
type Chunk struct {
	// Number is the 1-based position of the chunk within this run.
	Number int

	// First and Last are the 1-indexed paragraphs the chunk covers.
	First int
	Last  int

	// Text is the paragraphs joined by ParagraphSeparator.
	Text string
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// SplitParagraphs splits Markdown on the blank-line paragraph boundary.
// Paragraph i of the result is paragraph i+1 in user-facing numbering.
func SplitParagraphs(markdown string) []string {
	return strings.Split(markdown, ParagraphSeparator)
}

// BuildChunks groups paragraphs[start-1:] into chunks of about size
// characters. A chunk is closed when adding the next paragraph would push it
// past size, unless the chunk is still empty: an oversized paragraph always
// gets a chunk of its own. The chunk length includes the separators already
// inside it; the separator that would join the next paragraph is not counted.
func BuildChunks(paragraphs []string, start, size int) []Chunk {
	var (
		chunks []Chunk
		cur    Chunk
		curLen int
	)

	emit := func() {
		cur.Number = len(chunks) + 1
		chunks = append(chunks, cur)
	}

	for i, p := range paragraphs {
		n := i + 1
		if n < start {
			continue
		}
		pLen := utf8.RuneCountInString(p)

		switch {
		case cur.Text == "":
			cur = Chunk{First: n, Last: n, Text: p}
			curLen = pLen
		case curLen+pLen > size:
			emit()
			cur = Chunk{First: n, Last: n, Text: p}
			curLen = pLen
		default:
			cur.Text += ParagraphSeparator + p
			cur.Last = n
			curLen += utf8.RuneCountInString(ParagraphSeparator) + pLen
		}
	}

	if cur.Text != "" {
		emit()
	}
	return chunks
}
