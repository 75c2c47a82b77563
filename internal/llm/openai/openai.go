// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openai serves translation models through any server that speaks
// the OpenAI completions API (mlx_lm.server, llama.cpp, LM Studio).
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
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
	DefaultBaseURL = "http://127.0.0.1:8080"
	DefaultTimeout = 10 * time.Minute
)

// Config holds configuration for an OpenAI-compatible server.
type Config struct {
	// BaseURL is the server root, without the /v1 suffix.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout is the per-request timeout (default: 10m).
	Timeout time.Duration
}

// Runtime talks to an already running OpenAI-compatible server.
type Runtime struct {
	client  *http.Client
	baseURL string
	header  http.Header
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// New creates a runtime for the server at cfg.BaseURL.
func New(cfg Config) *Runtime {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Runtime{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		header:  header,
	}
}

// ModelsURL returns the endpoint used to list served models.
func (r *Runtime) ModelsURL() string {
	return r.baseURL + "/v1/models"
}

// Load checks that the server serves id. Servers that list no models at all
// (some load on demand) are trusted to resolve id on first use. Remote code
// is a server start-up concern, so opts is ignored here.
func (r *Runtime) Load(ctx context.Context, id string, _ llm.LoadOptions) (llm.Model, error) {
	var list modelList
	if err := httputil.DoJSON(ctx, r.client, http.MethodGet, r.ModelsURL(), r.header, nil, &list); err != nil {
		return nil, fmt.Errorf("openai: listing models: %w", err)
	}

	if len(list.Data) > 0 {
		found := false
		for _, m := range list.Data {
			if m.ID == id {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("openai: %w: %s", llm.ErrModelNotFound, id)
		}
	}

	return r.Attach(id), nil
}

// Attach returns a handle for id without asking the server. It is used when
// the caller started the server for that model itself.
func (r *Runtime) Attach(id string) *Model {
	return &Model{runtime: r, name: id}
}

// Model is a model served by an OpenAI-compatible server.
type Model struct {
	runtime *Runtime
	name    string
}

// Generate runs a plain completion for prompt and returns the first choice.
func (m *Model) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	req := completionRequest{
		Model:     m.name,
		Prompt:    prompt,
		MaxTokens: opts.MaxTokens,
		Stop:      opts.Stop,
	}

	var resp completionResponse
	url := m.runtime.baseURL + "/v1/completions"
	if err := httputil.DoJSON(ctx, m.runtime.client, http.MethodPost, url, m.runtime.header, req, &resp); err != nil {
		return "", fmt.Errorf("openai: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: completion returned no choices")
	}
	return resp.Choices[0].Text, nil
}

// Name returns the model identifier.
func (m *Model) Name() string { return m.name }

// Close is a no-op; the server outlives the model handle.
func (m *Model) Close() error { return nil }
