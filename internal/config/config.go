// Package config resolves the server configuration: built-in defaults,
// overlaid by an optional TOML file at ~/.athens/config.toml, overlaid
// by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds everything the composition root needs to wire the
// server.
type Config struct {
	// DBPath is the SQLite database the ingestion pipeline produced.
	DBPath string `toml:"db_path"`

	// EmbeddingURL is the base URL of the persistent embedding server.
	EmbeddingURL string `toml:"embedding_url"`

	// EmbeddingModel must match the embedding_model the stored vectors
	// were generated with.
	EmbeddingModel string `toml:"embedding_model"`

	// OllamaHost is the Ollama endpoint for enrichment; empty follows
	// the OLLAMA_HOST convention.
	OllamaHost string `toml:"ollama_host"`

	// EnrichModel is the Ollama model used for summaries and code
	// explanations.
	EnrichModel string `toml:"enrich_model"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:         filepath.Join(home, ".athens", "lrm.db"),
		EmbeddingURL:   "http://127.0.0.1:8765",
		EmbeddingModel: "Qwen/Qwen3-Embedding-0.6B",
		OllamaHost:     "",
		EnrichModel:    "qwen3:0.6b",
	}
}

// Load resolves the effective configuration. A missing config file is
// not an error; a malformed one is.
func Load() (Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ".athens", "config.toml")
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ATHENS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ATHENS_EMBEDDING_URL"); v != "" {
		cfg.EmbeddingURL = v
	}
	if v := os.Getenv("ATHENS_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("ATHENS_OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := os.Getenv("ATHENS_ENRICH_MODEL"); v != "" {
		cfg.EnrichModel = v
	}
}
