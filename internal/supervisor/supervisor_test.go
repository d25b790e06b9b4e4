package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locallm/internal/engine"
	"locallm/internal/execx"
	"locallm/internal/progress"
	"locallm/internal/retry"
)

type healthFunc func(ctx context.Context) bool

func (f healthFunc) Healthy(ctx context.Context) bool { return f(ctx) }

type fakeInstaller struct {
	installed bool
	err       error
	installs  int
}

func (f *fakeInstaller) IsInstalled(context.Context) bool { return f.installed }
func (f *fakeInstaller) BinaryPath() string               { return "/usr/bin/ollama" }
func (f *fakeInstaller) Install(context.Context) error {
	f.installs++
	if f.err != nil {
		return f.err
	}
	f.installed = true
	return nil
}

// countingLauncher records launches and flips healthy after launching.
type countingLauncher struct {
	name    string
	launchs atomic.Int32
	err     error
	healthy *atomic.Bool
}

func (l *countingLauncher) Name() string { return l.name }

func (l *countingLauncher) Launch(ctx context.Context, bin string) (*Process, error) {
	l.launchs.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	if l.healthy != nil {
		l.healthy.Store(true)
	}
	return nil, nil
}

func newTestSupervisor(health HealthChecker, inst Installer, strategies ...Strategy) (*Supervisor, *retry.FakeClock, *progress.Memory) {
	clk := retry.NewFakeClock(time.Unix(0, 0))
	rep := progress.NewMemory()
	s := New(Config{
		BaseURL:    engine.DefaultBaseURL,
		Health:     health,
		Installer:  inst,
		Strategies: strategies,
		Clock:      clk,
		Reporter:   rep,
	})
	return s, clk, rep
}

func TestStart_AlreadyHealthyDoesNotSpawn(t *testing.T) {
	l := &countingLauncher{name: "detached"}
	inst := &fakeInstaller{}
	before := testutil.ToFloat64(startsTotal.WithLabelValues("already_running"))
	s, _, rep := newTestSupervisor(healthFunc(func(context.Context) bool { return true }), inst,
		Strategy{Launcher: l, Policy: retry.Attempts(30, time.Second)})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRunning, s.State())
	assert.EqualValues(t, 0, l.launchs.Load())
	assert.Equal(t, 0, inst.installs, "healthy engine must not trigger install")
	assert.False(t, s.Owned())
	assert.Contains(t, rep.Last(), "already running")
	assert.Equal(t, before+1, testutil.ToFloat64(startsTotal.WithLabelValues("already_running")))
}

func TestStart_ConcurrentCallsSpawnOnce(t *testing.T) {
	var healthy atomic.Bool
	l := &countingLauncher{name: "detached", healthy: &healthy}
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return healthy.Load() }),
		&fakeInstaller{installed: true},
		Strategy{Launcher: l, Policy: retry.Attempts(30, time.Second)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Start(context.Background()))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, l.launchs.Load())
	assert.Equal(t, StateRunning, s.State())
}

func TestStart_FailsWithinPollBudget(t *testing.T) {
	var probes atomic.Int32
	health := healthFunc(func(context.Context) bool { probes.Add(1); return false })
	l := &countingLauncher{name: "detached"}
	s, clk, _ := newTestSupervisor(health, &fakeInstaller{installed: true},
		Strategy{Launcher: l, Policy: retry.Attempts(30, time.Second)})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsConnectivity(err))
	assert.Equal(t, StateFailed, s.State())
	assert.ErrorIs(t, s.LastError(), retry.ErrExhausted)
	// one initial probe plus 30 polls
	assert.EqualValues(t, 31, probes.Load())
	assert.LessOrEqual(t, clk.Slept(), 30*time.Second)
	assert.GreaterOrEqual(t, clk.Slept(), 29*time.Second)
}

func TestDefaultStrategies_DeadlineBoundsSlowHealthChecks(t *testing.T) {
	strategies := DefaultStrategies("127.0.0.1:11434", 30, 25, time.Second, 0, zerolog.Nop())
	require.Len(t, strategies, 2)
	for i := range strategies {
		assert.Equal(t, DefaultStartDeadline, strategies[i].Policy.Deadline)
		assert.Equal(t, DefaultProbeTimeout, strategies[i].Policy.AttemptTimeout)
		strategies[i].Launcher = &countingLauncher{name: strategies[i].Launcher.Name()}
	}

	// Every health check hangs for 5s of fake time before failing.
	var clk *retry.FakeClock
	var checks atomic.Int32
	health := healthFunc(func(context.Context) bool {
		checks.Add(1)
		clk.Advance(5 * time.Second)
		return false
	})
	s, c, _ := newTestSupervisor(health, &fakeInstaller{installed: true}, strategies...)
	clk = c

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrDeadline)

	elapsed := clk.Now().Sub(time.Unix(0, 0))
	// initial check plus two strategies, each may overrun by one check
	limit := 5*time.Second + 2*(DefaultStartDeadline+5*time.Second)
	assert.LessOrEqual(t, elapsed, limit)
	assert.Less(t, checks.Load(), int32(55), "attempt count must not drive the budget")
}

func TestStart_FallsBackToNextStrategy(t *testing.T) {
	var healthy atomic.Bool
	first := &countingLauncher{name: "detached", err: errors.New("nohup: not found")}
	second := &countingLauncher{name: "background", healthy: &healthy}
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return healthy.Load() }),
		&fakeInstaller{installed: true},
		Strategy{Launcher: first, Policy: retry.Attempts(30, time.Second)},
		Strategy{Launcher: second, Policy: retry.Attempts(25, time.Second)})

	require.NoError(t, s.Start(context.Background()))
	assert.EqualValues(t, 1, first.launchs.Load())
	assert.EqualValues(t, 1, second.launchs.Load())
	assert.Equal(t, StateRunning, s.State())
}

func TestStart_InstallsMissingEngine(t *testing.T) {
	var healthy atomic.Bool
	inst := &fakeInstaller{}
	l := &countingLauncher{name: "background", healthy: &healthy}
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return healthy.Load() }), inst,
		Strategy{Launcher: l, Policy: retry.Attempts(3, time.Second)})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, inst.installs)
	assert.EqualValues(t, 1, l.launchs.Load())
}

func TestStart_InstallFailureIsFatal(t *testing.T) {
	inst := &fakeInstaller{err: &engine.InstallationError{Reason: "unsupported platform plan9"}}
	l := &countingLauncher{name: "background"}
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return false }), inst,
		Strategy{Launcher: l, Policy: retry.Attempts(3, time.Second)})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsInstallation(err))
	assert.Equal(t, StateFailed, s.State())
	assert.EqualValues(t, 0, l.launchs.Load())
}

func TestStart_AdoptsExistingProcess(t *testing.T) {
	var found atomic.Bool
	health := healthFunc(func(context.Context) bool { return found.Load() })
	l := &countingLauncher{name: "detached"}
	s, clk, _ := newTestSupervisor(health, &fakeInstaller{installed: true},
		Strategy{Launcher: l, Policy: retry.Attempts(2, time.Second)})
	s.cfg.Finder = execx.FinderFunc(func(ctx context.Context, name string) ([]int, error) {
		assert.Equal(t, "ollama", name)
		found.Store(true)
		return []int{4242}, nil
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, 4242, s.PID())
	assert.False(t, s.Owned())
	// 1s between the two polls plus the adoption grace period
	assert.Equal(t, time.Second+DefaultAdoptGrace, clk.Slept())
	// Stop must not touch an adopted engine.
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, StateRunning, s.State())
}

func TestStart_NoProcessToAdopt(t *testing.T) {
	s, clk, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return false }), &fakeInstaller{installed: true},
		Strategy{Launcher: &countingLauncher{name: "detached"}, Policy: retry.Attempts(2, time.Second)})
	s.cfg.Finder = execx.FinderFunc(func(context.Context, string) ([]int, error) { return nil, nil })

	require.Error(t, s.Start(context.Background()))
	assert.Equal(t, time.Second, clk.Slept(), "no grace period without a candidate process")
}

func TestStart_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return false }), &fakeInstaller{installed: true},
		Strategy{Launcher: &countingLauncher{name: "a"}, Policy: retry.Attempts(5, time.Second)},
		Strategy{Launcher: &countingLauncher{name: "b"}, Policy: retry.Attempts(5, time.Second)})
	err := s.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStop_WithoutProcessIsNoop(t *testing.T) {
	s, _, _ := newTestSupervisor(healthFunc(func(context.Context) bool { return false }), &fakeInstaller{})
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, StateStopped, s.State())
}

func TestHostFromURL(t *testing.T) {
	assert.Equal(t, "127.0.0.1:11434", HostFromURL("http://localhost:11434"))
	assert.Equal(t, "10.0.0.5:8080", HostFromURL("http://10.0.0.5:8080"))
	assert.Equal(t, "127.0.0.1:11434", HostFromURL("http://localhost"))
	assert.Equal(t, "127.0.0.1:11434", HostFromURL("::bad"))
}
