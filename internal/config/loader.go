package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"locallm/internal/common/fsutil"
)

// Config holds runtime parameters for the orchestrator and its surfaces.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// Engine process and endpoint.
	EngineURL            string `json:"engine_url" yaml:"engine_url" toml:"engine_url"`
	EngineBinary         string `json:"engine_binary" yaml:"engine_binary" toml:"engine_binary"`
	StartAttempts        int    `json:"start_attempts" yaml:"start_attempts" toml:"start_attempts"`
	BackgroundAttempts   int    `json:"background_attempts" yaml:"background_attempts" toml:"background_attempts"`
	PollIntervalMs       int    `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	StartDeadlineSeconds int    `json:"start_deadline_seconds" yaml:"start_deadline_seconds" toml:"start_deadline_seconds"`
	StopTimeoutSeconds   int    `json:"stop_timeout_seconds" yaml:"stop_timeout_seconds" toml:"stop_timeout_seconds"`
	InstallSettleSeconds int    `json:"install_settle_seconds" yaml:"install_settle_seconds" toml:"install_settle_seconds"`

	// Models.
	ModelsFile         string   `json:"models_file" yaml:"models_file" toml:"models_file"`
	CandidateModels    []string `json:"candidate_models" yaml:"candidate_models" toml:"candidate_models"`
	PullMode           string   `json:"pull_mode" yaml:"pull_mode" toml:"pull_mode"`
	PullTimeoutMinutes int      `json:"pull_timeout_minutes" yaml:"pull_timeout_minutes" toml:"pull_timeout_minutes"`

	// Request pipeline.
	WarmupTimeoutSeconds   int      `json:"warmup_timeout_seconds" yaml:"warmup_timeout_seconds" toml:"warmup_timeout_seconds"`
	GenerateTimeoutSeconds int      `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	ContextThreshold       int      `json:"context_threshold" yaml:"context_threshold" toml:"context_threshold"`
	ContextHead            int      `json:"context_head" yaml:"context_head" toml:"context_head"`
	ContextTail            int      `json:"context_tail" yaml:"context_tail" toml:"context_tail"`
	MaxWords               int      `json:"max_words" yaml:"max_words" toml:"max_words"`
	NumCtx                 int      `json:"num_ctx" yaml:"num_ctx" toml:"num_ctx"`
	NumPredict             int      `json:"num_predict" yaml:"num_predict" toml:"num_predict"`
	Threads                int      `json:"threads" yaml:"threads" toml:"threads"`
	Temperature            *float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP                   *float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK                   int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	RepeatPenalty          float64  `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
	Stop                   []string `json:"stop" yaml:"stop" toml:"stop"`

	// HTTP surface.
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode unmarshals the file at path into v, choosing the codec by extension.
func Decode(path string, v any) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
	return nil
}
