// Package ollama serves translation models through a local Ollama daemon.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/mdtranslate/internal/httputil"
	"github.com/pdiddy/mdtranslate/internal/llm"
)

var (
	_ llm.Runtime = (*Runtime)(nil)
	_ llm.Model   = (*Model)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultTimeout = 10 * time.Minute
)

// Config holds configuration for the Ollama runtime.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Timeout is the request timeout (default: 10m). Loading a large model
	// or generating a long chunk can take minutes on a laptop.
	Timeout time.Duration
}

// Runtime loads models into a running Ollama daemon.
type Runtime struct {
	client  *http.Client
	baseURL string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Raw     bool     `json:"raw,omitempty"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// New creates an Ollama runtime.
func New(cfg Config) *Runtime {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runtime{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
	}
}

// Load asks Ollama to load id into memory. An empty prompt makes
// /api/generate load the model without generating anything. Ollama has no
// notion of remote code, so opts is accepted and ignored.
func (r *Runtime) Load(ctx context.Context, id string, _ llm.LoadOptions) (llm.Model, error) {
	req := generateRequest{Model: id, Stream: false}
	err := httputil.DoJSON(ctx, r.client, http.MethodPost, r.baseURL+"/api/generate", nil, req, nil)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("ollama: %w: %s", llm.ErrModelNotFound, id)
		}
		return nil, fmt.Errorf("ollama: loading %s: %w", id, err)
	}
	return &Model{runtime: r, name: id}, nil
}

// Model is a model loaded into Ollama.
type Model struct {
	runtime *Runtime
	name    string
}

// Generate sends prompt verbatim (raw mode, no chat template) and returns
// the generated text.
func (m *Model) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:  m.name,
		Prompt: prompt,
		Raw:    true,
		Stream: false,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: 0,
			Stop:        opts.Stop,
		},
	}

	var resp generateResponse
	if err := httputil.DoJSON(ctx, m.runtime.client, http.MethodPost, m.runtime.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", fmt.Errorf("ollama: generate: %w", err)
	}
	return resp.Response, nil
}

// Name returns the model identifier.
func (m *Model) Name() string { return m.name }

// Close is a no-op; Ollama unloads idle models on its own.
func (m *Model) Close() error { return nil }
