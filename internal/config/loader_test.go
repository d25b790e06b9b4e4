package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nengine_url: http://h:1\nstart_attempts: 3\ncandidate_models: [a, b]\nmax_words: 50\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.EngineURL != "http://h:1" || cfg.StartAttempts != 3 || len(cfg.CandidateModels) != 2 || cfg.MaxWords != 50 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","engine_binary":"/opt/ollama","temperature":0.2,"stop":["x"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.EngineBinary != "/opt/ollama" || cfg.Temperature == nil || *cfg.Temperature != 0.2 || len(cfg.Stop) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\npull_mode=\"api\"\nthreads=6\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.PullMode != "api" || cfg.Threads != 6 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Default()
	if cfg.EngineURL != DefaultEngineURL || cfg.StartAttempts != 30 || cfg.BackgroundAttempts != 25 {
		t.Fatalf("engine defaults: %+v", cfg)
	}
	if cfg.ContextThreshold != 2000 || cfg.ContextHead != 1200 || cfg.ContextTail != 800 || cfg.MaxWords != 600 {
		t.Fatalf("pipeline defaults: %+v", cfg)
	}
	if got := cfg.CandidateModels; len(got) != 3 || got[0] != "phi3.5:latest" || got[2] != "mistral:7b" {
		t.Fatalf("candidates: %v", got)
	}
	// Explicit values survive.
	c := Config{MaxWords: 10, Stop: []string{}}.WithDefaults()
	if c.MaxWords != 10 || len(c.Stop) != 0 {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
	// Candidates are copied, not aliased.
	cfg.CandidateModels[0] = "mutated"
	if DefaultCandidateModels[0] != "phi3.5:latest" {
		t.Fatalf("default slice aliased")
	}
}

func TestWithDefaults_ExplicitZeroSampling(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "cfg.yaml", "temperature: 0\ntop_p: 0\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg = cfg.WithDefaults()
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Fatalf("temperature 0 replaced: %v", cfg.Temperature)
	}
	if cfg.TopP == nil || *cfg.TopP != 0 {
		t.Fatalf("top_p 0 replaced: %v", cfg.TopP)
	}

	// Absent and negative values take the defaults.
	c := Config{TopP: Float(-1)}.WithDefaults()
	if *c.Temperature != DefaultTemperature || *c.TopP != DefaultTopP {
		t.Fatalf("defaults not applied: temperature=%v top_p=%v", *c.Temperature, *c.TopP)
	}
	if c.StartDeadlineSeconds != DefaultStartDeadlineSeconds {
		t.Fatalf("start deadline default: %d", c.StartDeadlineSeconds)
	}
}
