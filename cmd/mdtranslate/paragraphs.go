package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdtranslate/internal/convert"
	"github.com/pdiddy/mdtranslate/internal/translate"
	"github.com/pdiddy/mdtranslate/pkg/types"
)

// previewWidth is how many characters of each paragraph are listed.
const previewWidth = 60

var paragraphsCmd = &cobra.Command{
	Use:   "paragraphs INPUT.html",
	Short: "List the paragraphs and chunks a translation would use",
	Long: `Paragraphs converts INPUT.html the same way the root command does and lists
every 1-indexed paragraph with its length and the chunk it falls in for the
given chunk size. Use it to pick a --start-line for a resumed run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		html, err := convert.ReadHTML(args[0])
		if err != nil {
			return err
		}
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")
		start, _ := cmd.Flags().GetInt("start-line")

		markdown := convert.NewExtractor(types.ConversionConfig{
			ContentClass: viper.GetString("content_class"),
		}).Extract(html)
		return listParagraphs(cmd.OutOrStdout(), markdown, start, chunkSize)
	},
}

func init() {
	paragraphsCmd.Flags().Int("chunk-size", types.DefaultChunkSize, "target chunk size in characters")
	paragraphsCmd.Flags().Int("start-line", 1, "1-indexed paragraph chunking starts from")

	rootCmd.AddCommand(paragraphsCmd)
}

// listParagraphs writes one line per paragraph: its number, chunk, length
// and a preview. Paragraphs before start are listed without a chunk.
func listParagraphs(w io.Writer, markdown string, start, chunkSize int) error {
	if start < 1 {
		return fmt.Errorf("%w: %d", translate.ErrInvalidStart, start)
	}
	if chunkSize < 1 {
		return fmt.Errorf("%w: %d", translate.ErrInvalidChunkSize, chunkSize)
	}

	paragraphs := translate.SplitParagraphs(markdown)
	chunkOf := make(map[int]int, len(paragraphs))
	chunks := translate.BuildChunks(paragraphs, start, chunkSize)
	for _, c := range chunks {
		for p := c.First; p <= c.Last; p++ {
			chunkOf[p] = c.Number
		}
	}

	fmt.Fprintf(w, "%d paragraphs, %d chunks of up to %d chars from paragraph %d\n", len(paragraphs), len(chunks), chunkSize, start)
	for i, p := range paragraphs {
		n := i + 1
		chunk := "-"
		if c, ok := chunkOf[n]; ok {
			chunk = fmt.Sprint(c)
		}
		fmt.Fprintf(w, "%5d  chunk %-4s %6d  %s\n", n, chunk, len([]rune(p)), preview(p))
	}
	return nil
}

func preview(p string) string {
	line := strings.Join(strings.Fields(p), " ")
	r := []rune(line)
	if len(r) <= previewWidth {
		return line
	}
	return string(r[:previewWidth]) + "..."
}
