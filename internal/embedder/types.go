package embedder

import (
	"fmt"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

type Config struct {
	Provider string
	BaseURL  string
	Model    string
}

// New returns nil (no embedder) for an empty provider so the memory store
// can run in recency-only mode.
func New(cfg Config) (dimonmem.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return newOllama(baseURL, model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Provider)
	}
}
