// Package warmup primes the selected model with one tiny generate call so
// the first real request does not pay the model load cost. It is advisory:
// failures are logged and never block startup.
package warmup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"locallm/internal/engine"
	"locallm/internal/progress"
)

// Defaults for the priming call.
const (
	DefaultTimeout     = 20 * time.Second
	DefaultNumPredict  = 10
	DefaultTemperature = 0.3
	Prompt             = "Reply with only the word READY."
	ExpectedToken      = "READY"
)

// Generator runs a non-streaming completion.
type Generator interface {
	Generate(ctx context.Context, r engine.GenerateRequest) (string, error)
}

// Warmer remembers whether a model has been primed.
type Warmer struct {
	gen      Generator
	timeout  time.Duration
	reporter progress.Reporter
	logger   zerolog.Logger

	mu     sync.Mutex
	loaded map[string]bool
}

// New returns a Warmer. timeout <= 0 uses DefaultTimeout.
func New(gen Generator, timeout time.Duration, reporter progress.Reporter, logger zerolog.Logger) *Warmer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Warmer{
		gen:      gen,
		timeout:  timeout,
		reporter: progress.OrNop(reporter),
		logger:   logger.With().Str("component", "warmup").Logger(),
		loaded:   make(map[string]bool),
	}
}

// Loaded reports whether model has been primed successfully.
func (w *Warmer) Loaded(model string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded[model]
}

// Run primes model. It always returns true; a failed call is logged at warn.
// A model already primed is skipped.
func (w *Warmer) Run(ctx context.Context, model string) bool {
	if model == "" || w.Loaded(model) {
		return true
	}
	w.reporter.Report(progress.TagInfo + " Warming up model " + model + "...")
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	start := time.Now()
	reply, err := w.gen.Generate(ctx, engine.GenerateRequest{
		Model:  model,
		Prompt: Prompt,
		Options: map[string]any{
			"num_predict": DefaultNumPredict,
			"temperature": DefaultTemperature,
		},
	})
	if err != nil {
		w.logger.Warn().Err(engine.Classify(err, "warm-up", "")).Str("model", model).Msg("warm-up failed (non-fatal)")
		return true
	}
	w.mu.Lock()
	w.loaded[model] = true
	w.mu.Unlock()
	w.logger.Info().
		Str("model", model).
		Dur("took", time.Since(start)).
		Bool("expected_reply", strings.Contains(strings.ToUpper(reply), ExpectedToken)).
		Str("reply", strings.TrimSpace(reply)).
		Msg("warm-up complete")
	w.reporter.Report(progress.TagOK + " Model loaded and ready")
	return true
}
