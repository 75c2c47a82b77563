// Package factory builds the configured llm.Runtime.
package factory

import (
	"fmt"
	"io"

	"github.com/pdiddy/mdtranslate/internal/llm"
	"github.com/pdiddy/mdtranslate/internal/llm/mlx"
	"github.com/pdiddy/mdtranslate/internal/llm/ollama"
	"github.com/pdiddy/mdtranslate/internal/llm/openai"
	"github.com/pdiddy/mdtranslate/pkg/types"
)

// NewRuntime returns the runtime selected by cfg.Backend. An empty backend
// means mlx. serverLog receives the output of launched server processes.
func NewRuntime(cfg types.ModelConfig, serverLog io.Writer) (llm.Runtime, error) {
	switch cfg.Backend {
	case types.BackendMLX, "":
		return mlx.New(mlx.Config{
			Binary:         cfg.MLX.Binary,
			Port:           cfg.MLX.Port,
			StartupTimeout: cfg.MLX.StartupTimeout,
			Timeout:        cfg.Timeout,
			Stderr:         serverLog,
		}), nil
	case types.BackendOllama:
		return ollama.New(ollama.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case types.BackendOpenAI:
		return openai.New(openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q: use mlx, ollama, or openai", cfg.Backend)
	}
}
