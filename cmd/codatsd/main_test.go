package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pradeepp3/CODATS/pkg/config"
	"github.com/pradeepp3/CODATS/pkg/logging"
)

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--port", "8088", "--explain", "ollama", "--explain-model", "codellama"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	cfg, err := loadConfig(cmd, &daemonOptions{port: 8088, explain: "ollama", model: "codellama"})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8088 {
		t.Errorf("Port = %d, want 8088", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want default localhost", cfg.Server.Host)
	}
	if cfg.Explain.Provider != "ollama" || cfg.Explain.Model != "codellama" {
		t.Errorf("unexpected explain config %+v", cfg.Explain)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--explain", "gpt"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if _, err := loadConfig(cmd, &daemonOptions{explain: "gpt"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "codats.yaml")
	data := "server:\n  port: 9090\nscanner:\n  redact_snippets: true\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cfg, err := loadConfig(cmd, &daemonOptions{configPath: path})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	sc := serverConfig(cfg)
	if sc.Port != 9090 || !sc.RedactSnippets {
		t.Errorf("unexpected server config %+v", sc)
	}
	if sc.MaxUploadBytes != 5<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", sc.MaxUploadBytes, 5<<20)
	}
}

func TestNewExplainer(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := newExplainer(context.Background(), cfg, logging.Nop()).Backend(); got != "static" {
		t.Errorf("Backend() = %q, want static", got)
	}

	cfg.Explain.Provider = "ollama"
	cfg.Explain.Endpoint = "http://127.0.0.1:1"
	cfg.Explain.Timeout = time.Second
	if got := newExplainer(context.Background(), cfg, logging.Nop()).Backend(); got != "ollama" {
		t.Errorf("Backend() = %q, want ollama", got)
	}
}
