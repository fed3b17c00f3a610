package embed

import "github.com/qfs-io/qfs/internal/config"

// New selects a concrete Embedder from cfg: the in-process llama.cpp
// backend when UseLocal is set, otherwise the Ollama-style HTTP backend.
// Mirrors the teacher's own two-backend split in internal/llm.
func New(cfg *config.Config) (Embedder, error) {
	if cfg.UseLocal {
		return NewLocalEmbedder(cfg.LocalModelPath, cfg.LocalLibPath, cfg.EmbedDimensions)
	}
	return NewHTTPEmbedder(cfg.OllamaURL, cfg.ModelName, cfg.EmbedDimensions), nil
}
