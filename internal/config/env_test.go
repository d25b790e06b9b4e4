package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LOCALLM_ENGINE_URL": "http://10.0.0.2:11434",
		"LOCALLM_MODELS":     " a , ,b ",
		"LOCALLM_THREADS":    "12",
		"LOCALLM_MAX_WORDS":  "not-a-number",
	}
	cfg := Config{MaxWords: 7}.ApplyEnv(func(k string) string { return env[k] })
	if cfg.EngineURL != "http://10.0.0.2:11434" {
		t.Fatalf("engine url: %q", cfg.EngineURL)
	}
	if !reflect.DeepEqual(cfg.CandidateModels, []string{"a", "b"}) {
		t.Fatalf("models: %v", cfg.CandidateModels)
	}
	if cfg.Threads != 12 {
		t.Fatalf("threads: %d", cfg.Threads)
	}
	if cfg.MaxWords != 7 {
		t.Fatalf("invalid number should be ignored, got %d", cfg.MaxWords)
	}
}

func TestSplitCSV(t *testing.T) {
	if got := SplitCSV(""); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
	if got := SplitCSV("x,y ,, z"); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Fatalf("got %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	d := t.TempDir()
	p := writeTempFile(t, d, ".env", "LOCALLM_TEST_DOTENV_KEY=hello\n")
	t.Cleanup(func() { _ = os.Unsetenv("LOCALLM_TEST_DOTENV_KEY") })
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if os.Getenv("LOCALLM_TEST_DOTENV_KEY") != "hello" {
		t.Fatalf("env not applied")
	}
}
