// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements HTML-to-Markdown extraction.
// Readable regions are selected by class, converted independently with ATX
// headings, and joined into one normalized Markdown document.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/mdtranslate/pkg/types"
)

// ErrInputNotFound is returned by ReadHTML when the input file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// regionSeparator joins converted regions and separates paragraphs.
const regionSeparator = "\n\n"

// blankRuns matches three or more consecutive newlines.
var blankRuns = regexp.MustCompile(`\n{3,}`)

// Extractor converts HTML documents into Markdown. The zero value is not
// usable; create one with NewExtractor.
type Extractor struct {
	contentClass string
	converter    *md.Converter
}

// NewExtractor creates an Extractor for the given configuration. An empty
// ContentClass falls back to types.DefaultContentClass.
func NewExtractor(cfg types.ConversionConfig) *Extractor {
	class := strings.TrimSpace(cfg.ContentClass)
	if class == "" {
		class = types.DefaultContentClass
	}
	return &Extractor{
		contentClass: class,
		converter:    md.NewConverter("", true, &md.Options{HeadingStyle: "atx"}),
	}
}

// Extract converts the readable regions of html into a single Markdown
// string. Regions that convert to nothing are dropped and runs of blank
// lines are collapsed to one. Malformed HTML is parsed leniently and never
// produces an error.
func (e *Extractor) Extract(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The html parser only fails on reader errors, which a strings.Reader
		// never returns.
		return ""
	}

	regions := doc.Find("." + e.contentClass)
	if regions.Length() == 0 {
		regions = doc.Selection
	}

	var parts []string
	regions.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(e.converter.Convert(s))
		if text != "" {
			parts = append(parts, text)
		}
	})

	return blankRuns.ReplaceAllString(strings.Join(parts, regionSeparator), regionSeparator)
}

// ReadHTML reads the input document at path. A missing file is reported as
// ErrInputNotFound.
func ReadHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// WriteMarkdown writes content to path in a single write, creating parent
// directories as needed. Any existing file is replaced.
func WriteMarkdown(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
