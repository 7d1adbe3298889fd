package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected default log level: %s", cfg.Logging.Level)
	}
	if cfg.Patient.DefaultID != "pt-001" {
		t.Fatalf("unexpected default patient: %s", cfg.Patient.DefaultID)
	}
	if cfg.Embeddings.Model == "" {
		t.Fatal("expected a default embeddings model")
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("logging:\n  level: debug\nllm:\n  model: from-file\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(llmModelEnv, "from-env")
	t.Setenv(databaseDSNEnv, "postgres://env/db")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("file override lost: %s", cfg.Logging.Level)
	}
	if cfg.LLM.Model != "from-env" {
		t.Fatalf("env must win over file: %s", cfg.LLM.Model)
	}
	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("env DSN lost: %s", cfg.Database.DSN)
	}
	// Unrelated defaults survive the merge.
	if cfg.Search.BaseURL == "" {
		t.Fatal("default search base url lost in merge")
	}
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":::"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Logging.Level != "info" {
		t.Fatalf("broken file must fall back to defaults, got %s", cfg.Logging.Level)
	}
}
