package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"locallm/internal/catalog"
	"locallm/internal/config"
	"locallm/internal/engine"
	"locallm/internal/execx"
	"locallm/internal/hardware"
	"locallm/internal/install"
	"locallm/internal/pipeline"
	"locallm/internal/progress"
	"locallm/internal/registry"
	"locallm/internal/retry"
	"locallm/internal/supervisor"
	"locallm/internal/warmup"
	"locallm/pkg/types"
)

// Engine is the HTTP surface of the local engine. *engine.Client satisfies it.
type Engine interface {
	Healthy(ctx context.Context) bool
	Tags(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, r engine.GenerateRequest) (string, error)
	Pull(ctx context.Context, model string, fn func(engine.Progress)) error
}

// PullModeAPI selects downloads through the engine HTTP API. Any other
// pull_mode runs `<bin> pull`.
const PullModeAPI = "api"

type Manager struct {
	cfg       config.Config
	log       zerolog.Logger
	reporter  progress.Reporter
	publisher EventPublisher
	hw        hardware.Info

	engine Engine
	reg    *registry.Registry
	sup    *supervisor.Supervisor
	cat    *catalog.Catalog
	warm   *warmup.Warmer
	pipe   *pipeline.Pipeline

	setup     singleflight.Group
	startTime time.Time

	mu    sync.RWMutex
	state State
	err   string
}

// New builds the orchestrator and all of its collaborators from cfg. Nothing
// is started; call SetupEnvironment for that.
func New(cfg config.Config, opts ...Option) (*Manager, error) {
	cfg = cfg.WithDefaults()
	d := deps{logger: zerolog.Nop()}
	for _, o := range opts {
		o(&d)
	}
	log := d.logger.With().Str("component", "manager").Logger()

	var hw hardware.Info
	if d.hardware != nil {
		hw = *d.hardware
	} else {
		hw = hardware.Detect(d.logger)
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = hw.Cores
	}

	if d.engine == nil {
		c, err := engine.NewClient(cfg.EngineURL, nil)
		if err != nil {
			return nil, fmt.Errorf("engine client: %w", err)
		}
		d.engine = c
	}
	if d.registry == nil {
		if cfg.ModelsFile != "" {
			r, err := registry.Load(cfg.ModelsFile)
			if err != nil {
				return nil, fmt.Errorf("model registry: %w", err)
			}
			d.registry = r
		} else {
			d.registry = registry.Default()
		}
	}
	if d.runner == nil {
		d.runner = execx.OSRunner{Hidden: true}
	}
	if d.clock == nil {
		d.clock = retry.RealClock{}
	}
	if d.publisher == nil {
		d.publisher = LogPublisher{Logger: log}
	}
	reporter := progress.OrNop(d.reporter)

	if d.installer == nil {
		d.installer = install.New(install.Config{
			Binary:   cfg.EngineBinary,
			Runner:   d.runner,
			Reporter: reporter,
			Logger:   d.logger,
			Settle:   seconds(cfg.InstallSettleSeconds),
			Clock:    d.clock,
		})
	}
	if d.strategies == nil {
		d.strategies = supervisor.DefaultStrategies(
			supervisor.HostFromURL(cfg.EngineURL),
			cfg.StartAttempts, cfg.BackgroundAttempts,
			time.Duration(cfg.PollIntervalMs)*time.Millisecond,
			seconds(cfg.StartDeadlineSeconds),
			d.logger,
		)
	}
	if d.finder == nil {
		d.finder = execx.OSFinder{Runner: d.runner}
	}
	sup := supervisor.New(supervisor.Config{
		BaseURL:     cfg.EngineURL,
		Health:      d.engine,
		Installer:   d.installer,
		Strategies:  d.strategies,
		Finder:      d.finder,
		StopTimeout: seconds(cfg.StopTimeoutSeconds),
		Clock:       d.clock,
		Reporter:    reporter,
		Logger:      d.logger,
	})

	binary := catalog.BinaryFunc(d.installer.BinaryPath)
	if d.puller == nil {
		if cfg.PullMode == PullModeAPI {
			d.puller = catalog.APIPuller{Client: d.engine, Reporter: reporter}
		} else {
			d.puller = catalog.CLIPuller{Runner: d.runner, Binary: binary}
		}
	}
	cat := catalog.New(catalog.Config{
		Lister:      d.engine,
		Fallback:    catalog.CLILister{Runner: d.runner, Binary: binary},
		Puller:      d.puller,
		Registry:    d.registry,
		PullTimeout: time.Duration(cfg.PullTimeoutMinutes) * time.Minute,
		Reporter:    reporter,
		Logger:      d.logger,
	})

	compressor, err := pipeline.NewCompressor(cfg.ContextThreshold, cfg.ContextHead, cfg.ContextTail)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		log:       log,
		reporter:  reporter,
		publisher: d.publisher,
		hw:        hw,
		engine:    d.engine,
		reg:       d.registry,
		sup:       sup,
		cat:       cat,
		warm:      warmup.New(d.engine, seconds(cfg.WarmupTimeoutSeconds), reporter, d.logger),
		state:     StateIdle,
		startTime: time.Now(),
	}
	m.pipe = pipeline.New(pipeline.Config{
		Engine:     d.engine,
		Supervisor: sup,
		Model:      m.CurrentModel,
		Params: pipeline.SessionParameters{
			ContextWindow:    cfg.NumCtx,
			MaxPredictTokens: cfg.NumPredict,
			ThreadCount:      threads,
			Temperature:      *cfg.Temperature,
			TopP:             *cfg.TopP,
			TopK:             cfg.TopK,
			RepeatPenalty:    cfg.RepeatPenalty,
			StopSequences:    cfg.Stop,
		},
		Compressor: compressor,
		MaxWords:   cfg.MaxWords,
		Timeout:    seconds(cfg.GenerateTimeoutSeconds),
		Reporter:   reporter,
		Logger:     d.logger,
	})
	log.Info().
		Str("engine_url", cfg.EngineURL).
		Int("threads", threads).
		Strs("candidates", cfg.CandidateModels).
		Msg("manager ready")
	return m, nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// CurrentModel is the model used for generation: the catalog's selection,
// or the registry's preferred model before any selection was made.
func (m *Manager) CurrentModel() string {
	if s := m.cat.Selected(); s != "" {
		return s
	}
	return m.reg.Preferred()
}

// Ready reports whether setup completed and the engine is running.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	st := m.state
	m.mu.RUnlock()
	return st == StateReady && m.sup.State() == supervisor.StateRunning
}

func (m *Manager) setState(st State, errMsg string) {
	m.mu.Lock()
	m.state = st
	m.err = errMsg
	m.mu.Unlock()
}

func (m *Manager) publish(name, runID, model string, fields map[string]any) {
	m.publisher.Publish(Event{Name: name, RunID: runID, Model: model, At: time.Now(), Fields: fields})
}

// Generate answers prompt with the selected model. It never fails: failures
// come back as a displayable envelope.
func (m *Manager) Generate(ctx context.Context, prompt, docContext string) types.ResponseEnvelope {
	return m.pipe.Generate(ctx, prompt, docContext)
}

// ListModels returns installed models joined with registry metadata. When the
// engine cannot be queried it falls back to the registry view and reports the
// error alongside.
func (m *Manager) ListModels(ctx context.Context) types.ModelsResponse {
	resp := types.ModelsResponse{Selected: m.cat.Selected()}
	models, err := m.cat.List(ctx)
	if err != nil {
		resp.Models = m.cat.Descriptors()
		resp.Error = err.Error()
		return resp
	}
	resp.Models = models
	return resp
}

// Stop terminates the engine process if this manager started it. Engines that
// were already running, or were launched detached, are left alone.
func (m *Manager) Stop(ctx context.Context) error {
	if err := m.sup.Stop(ctx); err != nil {
		return fmt.Errorf("stop engine: %w", err)
	}
	m.setState(StateIdle, "")
	m.publish(EventStopped, "", "", nil)
	return nil
}
