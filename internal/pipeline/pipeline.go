// Package pipeline turns a question and an optional document into a bounded,
// displayable answer. Failures never escape as errors: every call returns a
// types.ResponseEnvelope whose Outcome says what happened.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"locallm/internal/engine"
	"locallm/internal/progress"
	"locallm/pkg/types"
)

// Defaults for a generate call.
const (
	DefaultTimeout        = 300 * time.Second
	DefaultRestartTimeout = 60 * time.Second
)

// Generator is the engine call the pipeline drives.
type Generator interface {
	Generate(ctx context.Context, r engine.GenerateRequest) (string, error)
}

// Supervisor restores the engine when it is down.
type Supervisor interface {
	Healthy(ctx context.Context) bool
	EnsureRunning(ctx context.Context) error
}

type Config struct {
	Engine     Generator
	Supervisor Supervisor

	// Model returns the currently selected model id.
	Model func() string

	Params     SessionParameters
	Compressor Compressor
	MaxWords   int
	Timeout    time.Duration

	// RestartTimeout bounds the background restart after a connectivity failure.
	RestartTimeout time.Duration

	Reporter progress.Reporter
	Logger   zerolog.Logger
}

type Pipeline struct {
	cfg  Config
	slot *semaphore.Weighted

	restarting atomic.Bool
	bg         sync.WaitGroup
}

func New(cfg Config) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RestartTimeout <= 0 {
		cfg.RestartTimeout = DefaultRestartTimeout
	}
	if cfg.MaxWords == 0 {
		cfg.MaxWords = DefaultMaxWords
	}
	if cfg.Compressor.Threshold <= 0 {
		cfg.Compressor = DefaultCompressor()
	}
	if cfg.Params.ContextWindow == 0 {
		cfg.Params = DefaultParameters(cfg.Params.ThreadCount)
	}
	if cfg.Model == nil {
		cfg.Model = func() string { return "" }
	}
	cfg.Reporter = progress.OrNop(cfg.Reporter)
	return &Pipeline{cfg: cfg, slot: semaphore.NewWeighted(1)}
}

// Params returns the session parameters used for every call.
func (p *Pipeline) Params() SessionParameters { return p.cfg.Params }

// Generate answers prompt, consulting context when it is non-blank. Calls are
// served one at a time; waiting callers queue on ctx.
func (p *Pipeline) Generate(ctx context.Context, prompt, docContext string) types.ResponseEnvelope {
	start := time.Now()
	env := p.generate(ctx, prompt, docContext)
	elapsed := time.Since(start)
	env.ElapsedMs = elapsed.Milliseconds()
	generateTotal.WithLabelValues(string(env.Outcome)).Inc()
	generateDuration.WithLabelValues(string(env.Outcome)).Observe(elapsed.Seconds())
	p.cfg.Logger.Info().
		Str("model", env.Model).
		Str("outcome", string(env.Outcome)).
		Bool("truncated", env.WasTruncated).
		Dur("elapsed", elapsed).
		Msg("generate")
	return env
}

func (p *Pipeline) generate(ctx context.Context, prompt, docContext string) types.ResponseEnvelope {
	if err := p.slot.Acquire(ctx, 1); err != nil {
		return p.failure("", engine.Classify(err, "generate", ""))
	}
	defer p.slot.Release(1)

	model := p.cfg.Model()
	if model == "" {
		return types.ResponseEnvelope{Text: MsgNoModel, Outcome: types.OutcomeError}
	}

	resupervised := false
	if p.cfg.Supervisor != nil && !p.cfg.Supervisor.Healthy(ctx) {
		resupervised = true
		p.cfg.Reporter.Report(progress.TagWait + " Engine is not responding, restarting...")
		if err := p.cfg.Supervisor.EnsureRunning(ctx); err != nil {
			p.cfg.Logger.Warn().Err(err).Msg("engine restart before generate failed")
			return types.ResponseEnvelope{Text: MsgUnreachable, Model: model, Outcome: types.OutcomeUnreachable}
		}
	}

	if c, dropped := p.cfg.Compressor.Compress(docContext); dropped {
		compressionsTotal.Inc()
		p.cfg.Logger.Debug().
			Int("runes_in", len([]rune(docContext))).
			Int("runes_out", len([]rune(c))).
			Msg("context compressed")
		docContext = c
	}
	text, err := BuildPrompt(prompt, docContext)
	if err != nil {
		return p.failure(model, err)
	}

	gctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	raw, err := p.cfg.Engine.Generate(gctx, engine.GenerateRequest{
		Model:   model,
		Prompt:  text,
		Options: p.cfg.Params.Options(),
	})
	if err != nil {
		if engine.IsConnectivity(err) && !resupervised {
			p.restartAsync(ctx)
		}
		return p.failure(model, err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.ResponseEnvelope{Text: MsgEmpty, Model: model, Outcome: types.OutcomeEmpty}
	}
	out, truncated := Postprocess(raw, p.cfg.MaxWords)
	return types.ResponseEnvelope{Text: out, WasTruncated: truncated, Model: model, Outcome: types.OutcomeOK}
}

func (p *Pipeline) failure(model string, err error) types.ResponseEnvelope {
	env := types.ResponseEnvelope{Model: model}
	switch {
	case engine.IsTimeout(err):
		env.Text, env.Outcome = MsgTimeout, types.OutcomeTimeout
	case engine.IsConnectivity(err):
		env.Text, env.Outcome = MsgUnreachable, types.OutcomeUnreachable
	default:
		env.Text, env.Outcome = MsgTransient+err.Error(), types.OutcomeError
	}
	p.cfg.Logger.Warn().Err(err).Str("outcome", string(env.Outcome)).Msg("generate failed")
	return env
}

// restartAsync asks the supervisor to bring the engine back without holding
// up the caller. At most one restart runs at a time.
func (p *Pipeline) restartAsync(ctx context.Context) {
	if p.cfg.Supervisor == nil || !p.restarting.CompareAndSwap(false, true) {
		return
	}
	p.cfg.Reporter.Report(progress.TagWait + " Lost connection to the engine, restarting in the background...")
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.RestartTimeout)
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		defer p.restarting.Store(false)
		defer cancel()
		if err := p.cfg.Supervisor.EnsureRunning(rctx); err != nil {
			p.cfg.Logger.Warn().Err(err).Msg("background engine restart failed")
			return
		}
		p.cfg.Logger.Info().Msg("engine restarted after connection loss")
	}()
}

// Wait blocks until any background restart has finished.
func (p *Pipeline) Wait() { p.bg.Wait() }
