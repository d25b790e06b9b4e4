// Package supervisor brings the engine process up through an ordered list of
// launch strategies, health-polls it with bounded retries, and stops it.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"locallm/internal/engine"
	"locallm/internal/execx"
	"locallm/internal/progress"
	"locallm/internal/retry"
)

// State is the supervisor lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateProbing  State = "probing"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateFailed   State = "failed"
)

var allStates = []State{StateStopped, StateProbing, StateStarting, StateRunning, StateFailed}

// Defaults for Config.
const (
	DefaultPollInterval  = time.Second
	DefaultStartDeadline = 35 * time.Second
	DefaultProbeTimeout  = 3 * time.Second
	DefaultAdoptGrace    = 3 * time.Second
	DefaultStopTimeout   = 10 * time.Second
	DefaultKillWait      = 2 * time.Second
	DefaultProcessName   = "ollama"
)

// HealthChecker probes the engine endpoint.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Installer detects and installs the engine binary.
type Installer interface {
	IsInstalled(ctx context.Context) bool
	Install(ctx context.Context) error
	BinaryPath() string
}

// Strategy pairs a launcher with the polling policy used after it spawns.
type Strategy struct {
	Launcher Launcher
	Policy   retry.Policy
}

// DefaultStrategies returns the detached-then-background fallback chain. Each
// strategy polls at most the given attempts and never longer than deadline;
// a single health probe is cut off after DefaultProbeTimeout.
func DefaultStrategies(host string, detachedAttempts, backgroundAttempts int, interval, deadline time.Duration, logger zerolog.Logger) []Strategy {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if deadline <= 0 {
		deadline = DefaultStartDeadline
	}
	policy := func(attempts int) retry.Policy {
		return retry.Policy{
			Interval:       interval,
			MaxAttempts:    attempts,
			Deadline:       deadline,
			AttemptTimeout: DefaultProbeTimeout,
		}
	}
	return []Strategy{
		{Launcher: DetachedLauncher{Logger: logger}, Policy: policy(detachedAttempts)},
		{Launcher: BackgroundLauncher{Host: host, Logger: logger}, Policy: policy(backgroundAttempts)},
	}
}

// Config wires a Supervisor.
type Config struct {
	BaseURL     string
	Health      HealthChecker
	Installer   Installer
	Strategies  []Strategy
	Finder      execx.ProcessFinder
	ProcessName string
	AdoptGrace  time.Duration
	StopTimeout time.Duration
	// KillWait bounds the wait for exit after the forceful kill.
	KillWait time.Duration
	Clock    retry.Clock
	Reporter progress.Reporter
	Logger   zerolog.Logger
}

// Supervisor owns at most one engine process. All mutation of the process
// handle and state happens through its methods.
type Supervisor struct {
	cfg Config
	sf  singleflight.Group

	mu         sync.Mutex
	state      State
	proc       *Process
	adoptedPID int
	lastErr    error
	startedAt  time.Time
}

// New returns a stopped Supervisor.
func New(cfg Config) *Supervisor {
	if cfg.ProcessName == "" {
		cfg.ProcessName = DefaultProcessName
	}
	if cfg.AdoptGrace <= 0 {
		cfg.AdoptGrace = DefaultAdoptGrace
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.KillWait <= 0 {
		cfg.KillWait = DefaultKillWait
	}
	if cfg.Clock == nil {
		cfg.Clock = retry.RealClock{}
	}
	cfg.Reporter = progress.OrNop(cfg.Reporter)
	cfg.Logger = cfg.Logger.With().Str("component", "supervisor").Logger()
	s := &Supervisor{cfg: cfg, state: StateStopped}
	observeState(StateStopped)
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the owned process id, the adopted one, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil {
		return s.proc.PID()
	}
	return s.adoptedPID
}

// Owned reports whether the supervisor holds a process it spawned.
func (s *Supervisor) Owned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// LastError returns the error of the most recent failed start, if any.
func (s *Supervisor) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Since returns when the engine last reached Running (zero if never).
func (s *Supervisor) Since() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	if st == StateRunning {
		s.lastErr = nil
		s.startedAt = s.cfg.Clock.Now()
	}
	s.mu.Unlock()
	observeState(st)
}

func (s *Supervisor) fail(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.lastErr = err
	s.mu.Unlock()
	observeState(StateFailed)
	startsTotal.WithLabelValues("failed").Inc()
	s.cfg.Logger.Error().Err(err).Msg("engine start failed")
	return err
}

// Healthy reports whether the engine endpoint answers.
func (s *Supervisor) Healthy(ctx context.Context) bool {
	return s.cfg.Health.Healthy(ctx)
}

// Start brings the engine to Running. Concurrent calls share one attempt.
// An engine that is already healthy is adopted without spawning anything.
func (s *Supervisor) Start(ctx context.Context) error {
	_, err, _ := s.sf.Do("start", func() (any, error) {
		return nil, s.start(ctx)
	})
	return err
}

func (s *Supervisor) start(ctx context.Context) error {
	s.setState(StateProbing)
	if s.cfg.Health.Healthy(ctx) {
		s.setState(StateRunning)
		startsTotal.WithLabelValues("already_running").Inc()
		s.cfg.Reporter.Report(progress.TagOK + " Engine is already running")
		return nil
	}

	if s.cfg.Installer != nil && !s.cfg.Installer.IsInstalled(ctx) {
		s.cfg.Reporter.Report(progress.TagWarning + " Engine not found, installing it...")
		if err := s.cfg.Installer.Install(ctx); err != nil {
			s.cfg.Reporter.Report(progress.TagError + " Engine installation failed")
			return s.fail(err)
		}
	}
	bin := DefaultProcessName
	if s.cfg.Installer != nil {
		bin = s.cfg.Installer.BinaryPath()
	}

	s.setState(StateStarting)
	s.cfg.Reporter.Report(progress.TagStart + " Starting engine...")
	var errs []error
	for _, st := range s.cfg.Strategies {
		name := st.Launcher.Name()
		err := s.tryStrategy(ctx, st, bin)
		if err == nil {
			s.setState(StateRunning)
			startsTotal.WithLabelValues(name).Inc()
			s.cfg.Reporter.Report(progress.TagOK + " Engine started")
			s.cfg.Logger.Info().Str("strategy", name).Int("pid", s.PID()).Msg("engine running")
			return nil
		}
		s.cfg.Logger.Warn().Err(err).Str("strategy", name).Msg("launch strategy failed")
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() == nil && s.adoptExisting(ctx) {
		s.setState(StateRunning)
		startsTotal.WithLabelValues("adopted").Inc()
		return nil
	}

	s.cfg.Reporter.Report(progress.TagError + " Could not start the engine")
	return s.fail(&engine.ConnectivityError{URL: s.cfg.BaseURL, Err: errors.Join(errs...)})
}

func (s *Supervisor) tryStrategy(ctx context.Context, st Strategy, bin string) error {
	proc, err := st.Launcher.Launch(ctx, bin)
	if err != nil {
		return err
	}
	s.cfg.Reporter.Report(progress.TagWait + " Waiting for the engine to become ready...")
	policy := st.Policy
	if policy.Clock == nil {
		policy.Clock = s.cfg.Clock
	}
	_, err = retry.Poll(ctx, policy, func(ctx context.Context, attempt int) (bool, error) {
		if proc != nil && proc.Exited() {
			return false, fmt.Errorf("engine exited early: %v; output tail: %s", proc.Err(), proc.Output())
		}
		ok := s.cfg.Health.Healthy(ctx)
		if ok {
			healthProbesTotal.WithLabelValues("healthy").Inc()
		} else {
			healthProbesTotal.WithLabelValues("unhealthy").Inc()
		}
		return ok, nil
	})
	if err != nil {
		if proc != nil {
			if terr := s.terminate(ctx, proc); terr != nil {
				s.cfg.Logger.Warn().Err(terr).Msg("failed strategy process not reaped")
			}
		}
		return err
	}
	s.mu.Lock()
	s.proc = proc
	s.adoptedPID = 0
	s.mu.Unlock()
	return nil
}

// adoptExisting looks for an engine process started outside this supervisor
// and adopts it when it becomes healthy after a short grace period.
func (s *Supervisor) adoptExisting(ctx context.Context) bool {
	if s.cfg.Finder == nil {
		return false
	}
	pids, err := s.cfg.Finder.Find(ctx, s.cfg.ProcessName)
	if err != nil {
		s.cfg.Logger.Debug().Err(err).Msg("process scan failed")
		return false
	}
	if len(pids) == 0 {
		return false
	}
	s.cfg.Reporter.Report(progress.TagWait + " Found a running engine process, verifying...")
	if err := retry.Sleep(ctx, s.cfg.Clock, s.cfg.AdoptGrace); err != nil {
		return false
	}
	if !s.cfg.Health.Healthy(ctx) {
		return false
	}
	s.mu.Lock()
	s.proc = nil
	s.adoptedPID = pids[0]
	s.mu.Unlock()
	s.cfg.Reporter.Report(progress.TagOK + " Engine already running in the background")
	s.cfg.Logger.Info().Int("pid", pids[0]).Msg("adopted existing engine process")
	return true
}

// EnsureRunning drops the handle of an owned process that has died and
// starts the engine again when it is not healthy.
func (s *Supervisor) EnsureRunning(ctx context.Context) error {
	s.mu.Lock()
	if s.proc != nil && s.proc.Exited() {
		s.cfg.Logger.Warn().Int("pid", s.proc.PID()).AnErr("exit", s.proc.Err()).Msg("engine process exited; restarting")
		s.proc = nil
		s.state = StateStopped
	}
	s.mu.Unlock()
	if s.cfg.Health.Healthy(ctx) {
		if s.State() != StateRunning {
			s.setState(StateRunning)
		}
		return nil
	}
	return s.Start(ctx)
}

// Stop terminates the owned engine process: graceful terminate, a bounded
// wait, then a forceful kill of its whole process group. An engine the
// supervisor does not own is left running. Stop returns within StopTimeout
// plus KillWait, or earlier when ctx ends.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	p := s.proc
	s.proc = nil
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	s.cfg.Reporter.Report(progress.TagInfo + " Stopping engine...")
	err := s.terminate(ctx, p)
	s.setState(StateStopped)
	if err != nil {
		s.cfg.Logger.Error().Err(err).Int("pid", p.PID()).Msg("engine stop incomplete")
		return err
	}
	s.cfg.Logger.Info().Int("pid", p.PID()).AnErr("exit", p.Err()).Msg("engine stopped")
	return nil
}

func (s *Supervisor) terminate(ctx context.Context, p *Process) error {
	if p.Exited() || p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	if err := execx.Terminate(p.cmd.Process); err != nil {
		s.cfg.Logger.Debug().Err(err).Int("pid", p.PID()).Msg("graceful terminate failed")
	}
	select {
	case <-p.Done():
		return nil
	case <-ctx.Done():
	case <-s.cfg.Clock.After(s.cfg.StopTimeout):
	}
	s.cfg.Logger.Warn().Int("pid", p.PID()).Msg("engine did not exit in time; killing")
	if err := execx.Kill(p.cmd.Process); err != nil {
		s.cfg.Logger.Debug().Err(err).Int("pid", p.PID()).Msg("kill failed")
	}
	select {
	case <-p.Done():
		return nil
	case <-ctx.Done():
		return &engine.TimeoutError{Op: "stop engine", Err: ctx.Err()}
	case <-s.cfg.Clock.After(s.cfg.KillWait):
		return &engine.TimeoutError{Op: "stop engine", Err: fmt.Errorf("pid %d still running after kill", p.PID())}
	}
}
