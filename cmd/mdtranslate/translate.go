// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdtranslate/internal/checkpoint"
	"github.com/pdiddy/mdtranslate/internal/convert"
	"github.com/pdiddy/mdtranslate/internal/llm/factory"
	"github.com/pdiddy/mdtranslate/internal/logger"
	"github.com/pdiddy/mdtranslate/internal/secrets"
	"github.com/pdiddy/mdtranslate/internal/translate"
	"github.com/pdiddy/mdtranslate/pkg/types"
)

// newRuntime is replaced in tests.
var newRuntime = factory.NewRuntime

// runConfig is everything one invocation of the root command needs.
type runConfig struct {
	Input       string
	Output      string
	NoTranslate bool
	Resume      bool
	// StartSet is true when --start-line was given explicitly.
	StartSet    bool
	Conversion  types.ConversionConfig
	Translation types.TranslationConfig
}

// loadRunConfig merges flags, config file and environment for a run.
func loadRunConfig(cmd *cobra.Command, input, output string) runConfig {
	noTranslate, _ := cmd.Flags().GetBool("no-translate")
	resume, _ := cmd.Flags().GetBool("resume")
	start, _ := cmd.Flags().GetInt("start-line")

	return runConfig{
		Input:       input,
		Output:      output,
		NoTranslate: noTranslate,
		Resume:      resume,
		StartSet:    cmd.Flags().Changed("start-line"),
		Conversion: types.ConversionConfig{
			ContentClass: viper.GetString("content_class"),
		},
		Translation: types.TranslationConfig{
			ModelConfig: types.ModelConfig{
				Backend: types.Backend(viper.GetString("backend")),
				Model:   viper.GetString("model"),
				BaseURL: viper.GetString("base_url"),
				APIKey:  secretDefault(secrets.OpenAIAPIKey, viper.GetString("api_key")),
				Timeout: viper.GetDuration("timeout"),
				MLX: types.MLXConfig{
					Binary:         viper.GetString("mlx.binary"),
					Port:           viper.GetInt("mlx.port"),
					StartupTimeout: viper.GetDuration("mlx.startup_timeout"),
				},
			},
			OutputPath:     output,
			ChunkSize:      viper.GetInt("chunk_size"),
			StartParagraph: start,
		},
	}
}

// runTranslate converts cfg.Input and, unless NoTranslate is set, translates
// it into cfg.Output. A model that cannot be loaded is reported and the run
// ends successfully with the output untouched.
func runTranslate(ctx context.Context, cfg runConfig, w io.Writer) error {
	fmt.Fprintf(w, "reading HTML: %s\n", cfg.Input)
	html, err := convert.ReadHTML(cfg.Input)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "converting HTML to Markdown")
	markdown := convert.NewExtractor(cfg.Conversion).Extract(html)

	if cfg.NoTranslate {
		// The rewritten output no longer matches any earlier translation progress.
		if err := checkpoint.Remove(cfg.Output); err != nil {
			return err
		}
		if err := convert.WriteMarkdown(cfg.Output, markdown); err != nil {
			return err
		}
		fmt.Fprintln(w, "translation skipped")
		fmt.Fprintf(w, "done: wrote %s\n", cfg.Output)
		return nil
	}

	tcfg := cfg.Translation
	if tcfg.ChunkSize == 0 {
		tcfg.ChunkSize = types.DefaultChunkSize
	}
	if tcfg.Model == "" {
		tcfg.Model = types.DefaultModel
	}

	var prior *types.Checkpoint
	if cfg.Resume && !cfg.StartSet {
		cp, err := checkpoint.Load(cfg.Output)
		if err != nil {
			return fmt.Errorf("resuming %s: %w", cfg.Output, err)
		}
		start, more, err := checkpoint.ResumeFrom(cp, checkpoint.Run{
			Source:    cfg.Input,
			Output:    cfg.Output,
			ChunkSize: tcfg.ChunkSize,
		})
		if err != nil {
			return fmt.Errorf("resuming %s: %w (pass --start-line to override)", cfg.Output, err)
		}
		if !more {
			fmt.Fprintf(w, "%s is already complete\n", cfg.Output)
			return nil
		}
		if _, err := os.Stat(cfg.Output); err != nil {
			return fmt.Errorf("resuming %s: %w", cfg.Output, err)
		}
		tcfg.StartParagraph = start
		prior = cp
		logger.Info("resuming at paragraph %d from %s", start, checkpoint.Path(cfg.Output))
	}

	rt, err := newRuntime(tcfg.ModelConfig, serverLog())
	if err != nil {
		return err
	}

	total := len(translate.SplitParagraphs(markdown))
	tracker := checkpoint.NewTracker(cfg.Input, cfg.Output, tcfg.Model, tcfg.ChunkSize, prior)

	fmt.Fprintln(w, "translating from English to Japanese")
	res, err := translate.Run(ctx, rt, markdown, tcfg, translate.Options{
		Progress: w,
		OnOutputReady: func(start int) {
			if err := tracker.Begin(start, total); err != nil {
				logger.Warn("saving checkpoint: %v", err)
				if err := checkpoint.Remove(cfg.Output); err != nil {
					logger.Warn("%v", err)
				}
			}
		},
		AfterChunk: func(c translate.Chunk) {
			if err := tracker.Record(c.Last, total); err != nil {
				logger.Warn("saving checkpoint: %v", err)
			}
		},
	})
	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)):
		next := res.NextParagraph
		if next < 1 {
			next = max(tcfg.StartParagraph, 1)
		}
		if ctx.Err() != nil && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return fmt.Errorf("interrupted before paragraph %d (continue with --resume): %w", next, err)
	case errors.Is(err, translate.ErrModelLoad):
		logger.Warn("%v; output left untouched", err)
		return nil
	case err != nil:
		return err
	}

	if err := tracker.Finish(res.NextParagraph, res.Paragraphs); err != nil {
		logger.Warn("saving checkpoint: %v", err)
	}
	if res.Fallbacks > 0 {
		logger.Warn("%d of %d chunks were left in English", res.Fallbacks, res.Chunks)
	}
	logger.Debug("%d chunks written in total, progress in %s", tracker.Checkpoint().ChunksWritten, checkpoint.Path(cfg.Output))
	fmt.Fprintf(w, "done: wrote translation to %s\n", cfg.Output)
	return nil
}

// serverLog is where launched model servers write their output.
func serverLog() io.Writer {
	if logger.IsVerbose() {
		return logger.Output()
	}
	return io.Discard
}
