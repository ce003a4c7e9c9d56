package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir is t.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadRecordsExplicitSourcePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: テスト\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.Name != "テスト" {
		t.Fatalf("app.name=%q, want テスト", cfg.App.Name)
	}
	if cfg.SourcePath != path {
		t.Fatalf("source path=%q, want %q", cfg.SourcePath, path)
	}
}

func TestLoadRecordsDiscoveredSourcePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "config", "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  log_level: debug\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("log_level=%q, want debug", cfg.App.LogLevel)
	}
	// 默认查找路径命中的文件也要记录，热更新监控依赖该路径
	if cfg.SourcePath == "" {
		t.Fatal("source path should be recorded for discovered config")
	}
	if filepath.Base(cfg.SourcePath) != "config.yaml" {
		t.Fatalf("source path=%q, want config.yaml", cfg.SourcePath)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SourcePath != "" {
		t.Fatalf("source path=%q, want empty when no file found", cfg.SourcePath)
	}
	if cfg.App.Name != "artmirror" {
		t.Fatalf("app.name=%q, defaults not applied", cfg.App.Name)
	}
}
