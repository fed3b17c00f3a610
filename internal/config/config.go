// Package config loads the ambient YAML settings that configure the
// embedding backend and chunking parameters, generalized from the
// teacher's internal/config/config.go. Collections themselves are no
// longer config-file-backed (the SQLite collections table is now
// authoritative, per SPEC_FULL.md's resolved open question); this file
// keeps only what genuinely lives outside the database.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds embedder selection and chunking defaults, loaded from
// "<user config dir>/qfs/config.yml" if present.
type Config struct {
	// Embedding backend selection.
	UseLocal  bool   `yaml:"use_local"`
	OllamaURL string `yaml:"ollama_url"`
	ModelName string `yaml:"model_name"`

	LocalModelPath string `yaml:"local_model_path"`
	LocalLibPath   string `yaml:"local_lib_path"`

	EmbedDimensions int `yaml:"embed_dimensions"`

	// Chunking defaults, overridable per `qfs embed` invocation.
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Default returns the built-in settings: an Ollama-style HTTP backend at
// the default local port, MiniLM-equivalent dimensionality.
func Default() *Config {
	return &Config{
		UseLocal:        false,
		OllamaURL:       "http://localhost:11434",
		ModelName:       "nomic-embed-text",
		EmbedDimensions: 384,
		ChunkSize:       500,
		ChunkOverlap:    50,
	}
}

// ConfigPath returns "<user config dir>/qfs/config.yml".
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "qfs", "config.yml"), nil
}

// Load reads the config file, falling back to Default() when absent.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to ConfigPath(), creating the parent directory.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultDBPath returns "<user cache dir>/qfs/index.sqlite", the
// database location used when neither -d/--database nor QFS_DB_PATH is
// set.
func DefaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "qfs", "index.sqlite")
}
