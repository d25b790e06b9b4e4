package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"locallm/internal/config"
	"locallm/internal/execx"
	"locallm/internal/hardware"
	"locallm/internal/httpapi"
	"locallm/internal/manager"
)

// fakeOllama speaks enough of the engine HTTP API for the orchestrator:
// model listing, non-streamed generation and streamed pulls.
type fakeOllama struct {
	mu        sync.Mutex
	installed []string
	reply     string
	prompts   []string
	pulls     []string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/tags":
		f.mu.Lock()
		type entry struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		}
		models := make([]entry, 0, len(f.installed))
		for _, n := range f.installed {
			models = append(models, entry{Name: n, Model: n})
		}
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	case "/api/generate":
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		reply := f.reply
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": reply, "done": true})
	case "/api/pull":
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		_ = enc.Encode(map[string]any{"status": "pulling manifest"})
		_ = enc.Encode(map[string]any{"status": "downloading", "total": 100, "completed": 50})
		_ = enc.Encode(map[string]any{"status": "downloading", "total": 100, "completed": 100})
		_ = enc.Encode(map[string]any{"status": "success"})
		f.mu.Lock()
		f.pulls = append(f.pulls, req.Model)
		f.installed = append(f.installed, req.Model)
		f.mu.Unlock()
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) pulled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pulls...)
}

func (f *fakeOllama) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// newStack wires the real manager, engine client and HTTP API against
// engineURL. No processes are spawned: binaries are never found.
func newStack(t *testing.T, engineURL string) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cfg := config.Default()
	cfg.EngineURL = engineURL
	cfg.PullMode = manager.PullModeAPI
	cfg.StartAttempts = 1
	cfg.BackgroundAttempts = 1
	cfg.PollIntervalMs = 10
	mgr, err := manager.New(cfg,
		manager.WithRunner(execx.RunnerFunc(func(context.Context, execx.Cmd) (execx.Result, error) {
			return execx.Result{}, errors.New("no binaries in e2e tests")
		})),
		manager.WithFinder(execx.FinderFunc(func(context.Context, string) ([]int, error) { return nil, nil })),
		manager.WithHardware(hardware.Info{Cores: 4, RAMGB: 8}),
	)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url, payload string) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != "" {
		body = bytes.NewBufferString(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func decode(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("json: %v body=%s", err, strings.TrimSpace(string(b)))
	}
}
