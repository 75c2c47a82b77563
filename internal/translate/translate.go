// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate runs the chunked English-to-Japanese translation stage.
// Markdown is split into paragraphs, grouped into chunks near a target size,
// and translated one chunk at a time through a single loaded model. Each
// translated chunk is appended to the output file before the next one
// starts, so an interrupted run can be resumed at the next paragraph.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/mdtranslate/internal/llm"
	"github.com/pdiddy/mdtranslate/internal/logger"
	"github.com/pdiddy/mdtranslate/pkg/types"
)

// Sentinel errors for the translation stage.
var (
	ErrModelLoad        = errors.New("model load failed")
	ErrInvalidStart     = errors.New("start paragraph must be 1 or greater")
	ErrInvalidChunkSize = errors.New("chunk size must be 1 or greater")
)

// rule is the width of the separators in progress output.
const rule = 80

// Options holds the optional collaborators of a run.
type Options struct {
	// Progress receives chunk progress and before/after text. Nil discards.
	Progress io.Writer

	// OnOutputReady is called once the output file is prepared, before any
	// chunk is translated. On a run from paragraph 1 the file has just been
	// truncated. The argument is the start paragraph.
	OnOutputReady func(start int)

	// AfterChunk is called once a chunk has been written to the output.
	AfterChunk func(Chunk)
}

// Result summarizes a translation run.
type Result struct {
	// Text is the translated chunks joined by ParagraphSeparator. The output
	// file holds the same text, after any content kept from a previous run.
	Text string

	// Paragraphs is the paragraph count of the whole document.
	Paragraphs int

	// Chunks is the number of chunks written.
	Chunks int

	// Fallbacks counts chunks written untranslated after a model error.
	Fallbacks int

	// NextParagraph is the first paragraph not yet written.
	NextParagraph int
}

// Run loads cfg.Model once through rt and translates markdown into
// cfg.OutputPath. If the model cannot be loaded, Run returns the markdown
// unchanged in Result.Text together with an error wrapping ErrModelLoad, and
// does not touch the output file.
func Run(ctx context.Context, rt llm.Runtime, markdown string, cfg types.TranslationConfig, opts Options) (Result, error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return Result{}, err
	}

	family := llm.ResolveFamily(cfg.Model)
	fmt.Fprintf(progressWriter(opts), "loading model: %s (%s)\n", cfg.Model, family)

	model, err := rt.Load(ctx, cfg.Model, llm.LoadOptionsFor(family))
	if err != nil {
		logger.Error("loading model %s: %v", cfg.Model, err)
		return Result{Text: markdown}, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	defer func() {
		if err := model.Close(); err != nil {
			logger.Warn("closing model: %v", err)
		}
	}()
	fmt.Fprintf(progressWriter(opts), "model loaded: %s\n", model.Name())

	s := NewSession(model, family, cfg, opts)
	return s.Translate(ctx, markdown)
}

// normalize applies defaults and validates the chunking parameters.
func normalize(cfg types.TranslationConfig) (types.TranslationConfig, error) {
	if cfg.Model == "" {
		cfg.Model = types.DefaultModel
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = types.DefaultChunkSize
	}
	if cfg.StartParagraph == 0 {
		cfg.StartParagraph = 1
	}
	if cfg.ChunkSize < 1 {
		return cfg, fmt.Errorf("%w: %d", ErrInvalidChunkSize, cfg.ChunkSize)
	}
	if cfg.StartParagraph < 1 {
		return cfg, fmt.Errorf("%w: %d", ErrInvalidStart, cfg.StartParagraph)
	}
	return cfg, nil
}

func progressWriter(opts Options) io.Writer {
	if opts.Progress == nil {
		return io.Discard
	}
	return opts.Progress
}

// Session owns one loaded model for the duration of a run.
type Session struct {
	model      llm.Model
	strategy   strategy
	output     string
	start      int
	chunkSize  int
	progress   io.Writer
	onReady    func(int)
	afterChunk func(Chunk)
}

// NewSession wraps a loaded model. The family decides prompt format, output
// parsing and token budget for every chunk of the session.
func NewSession(model llm.Model, family llm.Family, cfg types.TranslationConfig, opts Options) *Session {
	return &Session{
		model:      model,
		strategy:   strategyFor(family),
		output:     cfg.OutputPath,
		start:      cfg.StartParagraph,
		chunkSize:  cfg.ChunkSize,
		progress:   progressWriter(opts),
		onReady:    opts.OnOutputReady,
		afterChunk: opts.AfterChunk,
	}
}

// Translate translates markdown from the session's start paragraph and
// appends each chunk to the output file as soon as it is done. A chunk the
// model fails on is written in its original form. Translate stops early,
// without writing the interrupted chunk, when ctx is cancelled.
func (s *Session) Translate(ctx context.Context, markdown string) (Result, error) {
	paragraphs := SplitParagraphs(markdown)
	res := Result{Paragraphs: len(paragraphs), NextParagraph: s.start}

	fmt.Fprintf(s.progress, "%d paragraphs found\n", len(paragraphs))
	fmt.Fprintf(s.progress, "starting at paragraph %d\n", s.start)

	out := newOutputFile(s.output, s.start == 1)
	if err := out.init(); err != nil {
		return res, err
	}
	if s.onReady != nil {
		s.onReady(s.start)
	}

	chunks := BuildChunks(paragraphs, s.start, s.chunkSize)
	translated := make([]string, 0, len(chunks))

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return finish(res, translated), err
		}

		s.printBefore(c, len(chunks))

		text, err := s.TranslateChunk(ctx, c.Text)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return finish(res, translated), ctxErr
		}
		if err != nil {
			logger.Warn("chunk %d (paragraphs %d-%d) left untranslated: %v", c.Number, c.First, c.Last, err)
			res.Fallbacks++
		}

		if err := out.append(text); err != nil {
			return finish(res, translated), err
		}
		translated = append(translated, text)
		res.Chunks++
		res.NextParagraph = c.Last + 1

		s.printAfter(c, text)

		if s.afterChunk != nil {
			s.afterChunk(c)
		}
	}

	return finish(res, translated), nil
}

func finish(res Result, translated []string) Result {
	res.Text = strings.Join(translated, ParagraphSeparator)
	return res
}

// TranslateChunk asks the model to translate text. On any failure it
// returns text unchanged together with the error; an empty extraction also
// yields text, without an error.
func (s *Session) TranslateChunk(ctx context.Context, text string) (string, error) {
	prompt, err := s.strategy.render(text)
	if err != nil {
		return text, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := s.model.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens: s.strategy.maxTokens,
		Stop:      s.strategy.stop,
	})
	if err != nil {
		return text, fmt.Errorf("generating translation: %w", err)
	}

	result := s.strategy.extract(raw, prompt)
	if result == "" {
		logger.Debug("empty translation for %d-char chunk, keeping source text", len(text))
		return text, nil
	}
	return result, nil
}

func (s *Session) printBefore(c Chunk, total int) {
	fmt.Fprintf(s.progress, "\n%s\n", strings.Repeat("=", rule))
	fmt.Fprintf(s.progress, "translating chunk %d/%d (paragraphs %d-%d, %d chars)\n", c.Number, total, c.First, c.Last, c.Len())
	fmt.Fprintln(s.progress, strings.Repeat("=", rule))
	fmt.Fprintln(s.progress, "[source]")
	fmt.Fprintln(s.progress, c.Text)
	fmt.Fprintln(s.progress, strings.Repeat("-", rule))
}

func (s *Session) printAfter(c Chunk, text string) {
	fmt.Fprintln(s.progress, "[translation]")
	fmt.Fprintln(s.progress, text)
	fmt.Fprintln(s.progress, strings.Repeat("=", rule))
	fmt.Fprintf(s.progress, "saved chunk %d (next paragraph: %d)\n", c.Number, c.Last+1)
}
