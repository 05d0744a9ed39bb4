package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".athens", "lrm.db")) {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.EmbeddingURL != "http://127.0.0.1:8765" {
		t.Errorf("EmbeddingURL = %q", cfg.EmbeddingURL)
	}
	if cfg.EmbeddingModel == "" || cfg.EnrichModel == "" {
		t.Error("model defaults must be set")
	}
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
db_path = "/data/lrm.db"
embedding_url = "http://embed:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(&cfg, path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if cfg.DBPath != "/data/lrm.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.EmbeddingURL != "http://embed:9000" {
		t.Errorf("EmbeddingURL = %q", cfg.EmbeddingURL)
	}
	// Keys the file omits keep their defaults.
	if cfg.EmbeddingModel != Default().EmbeddingModel {
		t.Error("omitted keys must keep defaults")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Default()
	if err := loadFile(&cfg, filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Errorf("a missing config file is not an error: %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("db_path = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := loadFile(&cfg, path); err == nil {
		t.Error("a malformed config file must fail loudly")
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	t.Setenv("ATHENS_DB_PATH", "/env/lrm.db")
	t.Setenv("ATHENS_OLLAMA_HOST", "http://ollama:11434")

	cfg := Default()
	cfg.DBPath = "/file/lrm.db"
	applyEnv(&cfg)

	if cfg.DBPath != "/env/lrm.db" {
		t.Errorf("env must win over the file: %q", cfg.DBPath)
	}
	if cfg.OllamaHost != "http://ollama:11434" {
		t.Errorf("OllamaHost = %q", cfg.OllamaHost)
	}
}

func TestApplyEnv_EmptyIgnored(t *testing.T) {
	t.Setenv("ATHENS_EMBEDDING_URL", "")
	cfg := Default()
	applyEnv(&cfg)
	if cfg.EmbeddingURL != Default().EmbeddingURL {
		t.Error("empty env vars must not clear settings")
	}
}
