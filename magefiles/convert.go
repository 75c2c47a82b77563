//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// samplesDir holds HTML pages for manual runs; results go to samples/out.
const samplesDir = "samples"

// Convert turns every samples/*.html page into Markdown without translating.
func Convert() error {
	mg.Deps(Build)
	return eachSample(func(in, out string) error {
		return sh.RunV(binPath, in, out, "--no-translate")
	})
}

// Translate translates every samples/*.html page with the configured model.
// Runs with an existing checkpoint continue where they stopped.
func Translate() error {
	mg.Deps(Build)
	return eachSample(func(in, out string) error {
		args := []string{in, out}
		if _, err := os.Stat(out + ".progress.yaml"); err == nil {
			args = append(args, "--resume")
		}
		return sh.RunV(binPath, args...)
	})
}

func eachSample(run func(in, out string) error) error {
	pages, err := filepath.Glob(filepath.Join(samplesDir, "*.html"))
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Printf("No HTML pages in %s/\n", samplesDir)
		return nil
	}
	for _, in := range pages {
		name := strings.TrimSuffix(filepath.Base(in), ".html") + ".md"
		out := filepath.Join(samplesDir, "out", name)
		if err := run(in, out); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	}
	return nil
}
