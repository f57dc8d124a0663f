package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFirstRunWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("base url = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("timeout = %d, want default", cfg.API.TimeoutSeconds)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if !strings.Contains(string(data), "//") {
		t.Error("template is missing its documentation comments")
	}

	// The written template must round-trip through Load itself.
	cfg2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load on template: %v", err)
	}
	if cfg2 != cfg {
		t.Errorf("template config = %+v, want %+v", cfg2, cfg)
	}
}

func TestLoadStripsCommentsAndBackfills(t *testing.T) {
	dir := t.TempDir()
	content := `// leading comment
{
  "api": {
    // only the url is set; the timeout should be backfilled
    "base_url": "http://localhost:8000"
  }
}
`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("timeout = %d, want backfilled default", cfg.API.TimeoutSeconds)
	}
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err == nil {
		t.Fatal("Load succeeded on malformed file")
	}
	if cfg.API.BaseURL != DefaultBaseURL || cfg.API.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("fallback config = %+v, want defaults", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBaseURL, "http://staging.example.com")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://staging.example.com" {
		t.Errorf("base url = %q, want env override", cfg.API.BaseURL)
	}
}

func TestStripLineComments(t *testing.T) {
	in := "// a\n  // b\n{\"x\": 1}\nnot // inline\n"
	got := string(stripLineComments([]byte(in)))
	want := "{\"x\": 1}\nnot // inline\n"
	if got != want {
		t.Errorf("stripLineComments = %q, want %q", got, want)
	}
}
