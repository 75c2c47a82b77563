// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the model runtime used by the translation stage: a
// Runtime loads a model by identifier once, and the returned Model generates
// text from a prompt within a token budget. Backends live in subpackages
// (ollama, openai, mlx); the factory subpackage selects one from config.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrModelNotFound is returned by Load when the runtime does not know the
// requested model identifier.
var ErrModelNotFound = errors.New("model not found")

// LoadOptions configures model loading.
type LoadOptions struct {
	// TrustRemoteCode allows the runtime to execute custom model or tokenizer
	// code shipped with the model. Required by the plamo family.
	TrustRemoteCode bool
}

// GenerateOptions configures a single generation call.
type GenerateOptions struct {
	// MaxTokens caps the number of generated tokens.
	MaxTokens int

	// Stop lists sequences that end generation when produced.
	Stop []string
}

// Runtime loads models by identifier.
type Runtime interface {
	// Load prepares the model for generation. It is the expensive step and
	// is called once per invocation.
	Load(ctx context.Context, id string, opts LoadOptions) (Model, error)
}

// Model is a loaded model ready for generation.
type Model interface {
	// Generate returns the raw generated text for prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Name returns the model identifier.
	Name() string

	// Close releases the model and anything started to serve it.
	Close() error
}

// Family classifies a model identifier. The family decides how prompts are
// built, how output is parsed, and how many tokens a chunk may produce.
type Family int

const (
	// FamilyGeneric is any instruction-following model.
	FamilyGeneric Family = iota
	// FamilyPlamo is a plamo model that is not the dedicated translator. It
	// needs custom tokenizer code but uses the generic prompt.
	FamilyPlamo
	// FamilyPlamoTranslate is the dedicated plamo translation model.
	FamilyPlamoTranslate
)

// String returns the family name used in logs.
func (f Family) String() string {
	switch f {
	case FamilyPlamo:
		return "plamo"
	case FamilyPlamoTranslate:
		return "plamo-translate"
	default:
		return "generic"
	}
}

// ResolveFamily maps a model identifier to its family.
func ResolveFamily(id string) Family {
	lower := strings.ToLower(id)
	if !strings.Contains(lower, "plamo") {
		return FamilyGeneric
	}
	if strings.Contains(lower, "translate") {
		return FamilyPlamoTranslate
	}
	return FamilyPlamo
}

// LoadOptionsFor returns the load options a family requires.
func LoadOptionsFor(f Family) LoadOptions {
	return LoadOptions{TrustRemoteCode: f == FamilyPlamo || f == FamilyPlamoTranslate}
}
