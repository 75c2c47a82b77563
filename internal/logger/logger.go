// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger writes mdtranslate diagnostics, one prefixed line per call.
// DEBUG and INFO lines are written only in verbose mode. WARN and ERROR lines
// report chunk fallbacks and load failures and are always written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Line prefixes.
const (
	levelDebug = "[DEBUG] "
	levelInfo  = "[INFO] "
	levelWarn  = "[WARN] "
	levelError = "[ERROR] "
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns DEBUG and INFO lines on or off (--verbose).
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether DEBUG and INFO lines are written.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all lines to w. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Output returns the writer lines go to.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// logf writes one line with prefix. Lines with quiet set are dropped unless
// verbose mode is on.
func logf(prefix string, quiet bool, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if quiet && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

func Debug(format string, args ...any) { logf(levelDebug, true, format, args) }

func Info(format string, args ...any) { logf(levelInfo, true, format, args) }

// Warn reports a recoverable problem, such as a chunk left in English.
func Warn(format string, args ...any) { logf(levelWarn, false, format, args) }

func Error(format string, args ...any) { logf(levelError, false, format, args) }
