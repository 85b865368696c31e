package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"assistd/internal/gateway"
	"assistd/internal/httpapi"
	"assistd/internal/manager"
	"assistd/internal/store"
	"assistd/pkg/types"
)

// staticProfiler reports a fixed host.
type staticProfiler struct{ prof types.HardwareProfile }

func (s staticProfiler) Profile(context.Context) types.HardwareProfile { return s.prof }

var heavyHost = types.HardwareProfile{
	TotalMemoryGB: 64,
	CPUCount:      16,
	CPUBrand:      "AMD Ryzen 9 7950X",
	GPUs:          []types.GpuDescriptor{{Name: "NVIDIA GeForce RTX 4090", Vendor: "NVIDIA", VRAMGB: types.Float64Ptr(24)}},
	OSInfo:        "Ubuntu 24.04",
}

// fakeOllama imitates the subset of the Ollama API the gateway uses.
type fakeOllama struct {
	mu      sync.Mutex
	prompts map[string]string // model -> last prompt
	pulled  []string
	// gate, when set, holds generate requests until closed
	gate    chan struct{}
	failGen bool
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.prompts[req.Model] = req.Prompt
		gate, fail := f.gate, f.failGen
		f.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			http.Error(w, `{"error":"model crashed"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": "reply from " + req.Model, "done": true})
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.pulled = append(f.pulled, req.Name)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		names := append([]string(nil), f.pulled...)
		f.mu.Unlock()
		models := make([]map[string]string, 0, len(names))
		for _, n := range names {
			models = append(models, map[string]string{"name": n})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	})
	return mux
}

func (f *fakeOllama) prompt(model string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[model]
}

type stack struct {
	srv    *httptest.Server
	mgr    *manager.Manager
	store  *store.Store
	ollama *fakeOllama
}

// newStack wires the real gateway, store, manager and HTTP layer against a
// fake Ollama server.
func newStack(t *testing.T, ollama *fakeOllama, mutate func(*manager.ManagerConfig)) *stack {
	t.Helper()
	if ollama.prompts == nil {
		ollama.prompts = map[string]string{}
	}
	upstream := httptest.NewServer(ollama.handler())
	t.Cleanup(upstream.Close)

	st, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "data", "assistant.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := manager.ManagerConfig{
		Profiler:  staticProfiler{prof: heavyHost},
		Generator: gateway.New(gateway.Config{BaseURL: upstream.URL}),
		Store:     st,
		Publisher: httpapi.EventMetrics{},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, mgr: mgr, store: st, ollama: ollama}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("json: %v body=%s", err, strings.TrimSpace(string(body)))
	}
}
