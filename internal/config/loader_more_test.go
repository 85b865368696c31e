package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RejectsMalformedFiles(t *testing.T) {
	d := t.TempDir()
	cases := map[string]string{
		"bad.yaml": "ollama:\n  base_url: [unclosed\n",
		"bad.yml":  "routing:\n  code: heavy: x\n",
		"bad.json": `{ "ollama": { "base_url": "http://x" }, "database": }`,
		"bad.toml": "[ollama]\nbase_url=http://x\nmodels\n",
	}
	for name, content := range cases {
		p := writeTempFile(t, d, name, content)
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
	if _, err := Load(filepath.Join(d, "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSave_RoundTripsEveryFormat(t *testing.T) {
	d := t.TempDir()
	in := Default()
	in.Server.Addr = ":9191"
	in.Routing["code"] = RouteRow{Light: "a", Medium: "b", Heavy: "c", NPU: "d"}
	for _, ext := range []string{".yaml", ".json", ".toml"} {
		p := filepath.Join(d, "nested", "assistd"+ext)
		if err := Save(p, in); err != nil {
			t.Fatalf("save %s: %v", ext, err)
		}
		out, err := Load(p)
		if err != nil {
			t.Fatalf("load %s: %v", ext, err)
		}
		if out.Server.Addr != ":9191" || out.Routing["code"].NPU != "d" {
			t.Fatalf("%s: round trip lost fields: %+v", ext, out.Server)
		}
	}
	if err := Save(filepath.Join(d, "assistd.ini"), in); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative url", func(c *Config) { c.Ollama.BaseURL = "localhost:11434" }, "ollama.base_url"},
		{"zero page size", func(c *Config) { c.Server.MaxPageSize = 0 }, "max_page_size"},
		{"blank category", func(c *Config) { c.Routing["  "] = RouteRow{} }, "empty category"},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v, want mention of %q", tc.name, err, tc.want)
		}
	}
}
