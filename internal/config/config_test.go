package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TargetLang != "ar" || cfg.SourceLang != "en" {
		t.Errorf("languages = %s/%s", cfg.TargetLang, cfg.SourceLang)
	}
	if cfg.Dispatch.BatchSize != 20 || cfg.Dispatch.Debounce != 500*time.Millisecond {
		t.Errorf("dispatch = %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.WaitTimeout < cfg.Dispatch.Debounce+cfg.Dispatch.RequestTimeout {
		t.Error("default wait timeout must cover debounce + request timeout")
	}
	if cfg.Cache.TTL != 30*24*time.Hour {
		t.Errorf("cache.ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Store.Kind != "sqlite" || cfg.Provider.Kind != "openai" {
		t.Errorf("store=%s provider=%s", cfg.Store.Kind, cfg.Provider.Kind)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GOTLUI_TARGET_LANG", "he")
	t.Setenv("GOTLUI_STORE_KIND", "memory")
	t.Setenv("GOTLUI_DISPATCH_DEBOUNCE", "250ms")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TargetLang != "he" || cfg.Store.Kind != "memory" || cfg.Dispatch.Debounce != 250*time.Millisecond {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotlui.yaml")
	content := `target_lang: fa
provider:
  kind: http
  base_url: https://translate.example.com
cache:
  ttl: 48h
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := New()
	used, err := ReadFile(v, path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if used != path {
		t.Errorf("used = %q", used)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TargetLang != "fa" || cfg.Provider.Kind != "http" || cfg.Cache.TTL != 48*time.Hour {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Dispatch.BatchSize != 20 {
		t.Error("unset keys should keep defaults")
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("an explicit missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad provider", func(c *Config) { c.Provider.Kind = "deepl" }, "provider.kind"},
		{"http without url", func(c *Config) { c.Provider.Kind = "http" }, "base_url"},
		{"bad store", func(c *Config) { c.Store.Kind = "mongo" }, "store.kind"},
		{"zero batch", func(c *Config) { c.Dispatch.BatchSize = 0 }, "batch_size"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"no target", func(c *Config) { c.TargetLang = "" }, "target_lang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New())
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug should be filtered at info level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected JSON record, got %s", out)
	}
}
