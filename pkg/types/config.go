// Package types defines configuration and progress records shared by the
// mdtranslate stages and CLI.
package types

import "time"

// Backend identifies the model runtime used to serve the translation model.
type Backend string

const (
	BackendMLX    Backend = "mlx"
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

// DefaultModel is the built-in translation model.
const DefaultModel = "mlx-community/plamo-2-translate"

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 1000

// DefaultContentClass is the class attribute marking readable regions in the
// source HTML.
const DefaultContentClass = "readable-text"

// ConversionConfig holds settings for the HTML-to-Markdown stage.
type ConversionConfig struct {
	// ContentClass selects the regions to convert (default "readable-text").
	// When no element carries the class the whole document is converted.
	ContentClass string `json:"content_class" yaml:"content_class"`
}

// MLXConfig holds settings for the locally launched mlx_lm.server process.
type MLXConfig struct {
	// Binary is the server executable (default "mlx_lm.server").
	Binary string `json:"binary" yaml:"binary"`

	// Port is the local port the server listens on (default 8765).
	Port int `json:"port" yaml:"port"`

	// StartupTimeout bounds how long Load waits for the server to answer.
	StartupTimeout time.Duration `json:"startup_timeout" yaml:"startup_timeout"`
}

// ModelConfig holds settings for loading and calling the translation model.
type ModelConfig struct {
	// Backend selects the runtime: mlx, ollama, or openai.
	Backend Backend `json:"backend" yaml:"backend"`

	// Model is the model identifier (e.g. "mlx-community/plamo-2-translate").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the model server URL. Empty means the backend default.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as a bearer token by the openai backend, if set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	MLX MLXConfig `json:"mlx" yaml:"mlx"`
}

// TranslationConfig holds settings for the chunked translation stage.
type TranslationConfig struct {
	ModelConfig `yaml:",inline"`

	// OutputPath is the Markdown file translated chunks are appended to.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ChunkSize is the target chunk length in characters (default 1000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// StartParagraph is the 1-indexed paragraph translation starts from.
	StartParagraph int `json:"start_paragraph" yaml:"start_paragraph"`
}
