package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locallm/internal/engine"
	"locallm/internal/progress"
	"locallm/pkg/types"
)

type genFunc func(ctx context.Context, r engine.GenerateRequest) (string, error)

func (f genFunc) Generate(ctx context.Context, r engine.GenerateRequest) (string, error) { return f(ctx, r) }

type fakeSupervisor struct {
	mu      sync.Mutex
	healthy bool
	err     error
	ensures int
}

func (s *fakeSupervisor) Healthy(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

func (s *fakeSupervisor) EnsureRunning(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensures++
	if s.err == nil {
		s.healthy = true
	}
	return s.err
}

func (s *fakeSupervisor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensures
}

func newTestPipeline(gen Generator, sup Supervisor, rep progress.Reporter) *Pipeline {
	return New(Config{
		Engine:     gen,
		Supervisor: sup,
		Model:      func() string { return "phi3.5:latest" },
		Params:     DefaultParameters(4),
		Reporter:   rep,
		Logger:     zerolog.Nop(),
	})
}

func TestGenerate_OK(t *testing.T) {
	var got engine.GenerateRequest
	p := newTestPipeline(genFunc(func(ctx context.Context, r engine.GenerateRequest) (string, error) {
		got = r
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return "  Go is a programming language.  ", nil
	}), &fakeSupervisor{healthy: true}, nil)

	env := p.Generate(context.Background(), "What is Go?", "")
	assert.Equal(t, types.OutcomeOK, env.Outcome)
	assert.Equal(t, "Go is a programming language.", env.Text)
	assert.Equal(t, "phi3.5:latest", env.Model)
	assert.False(t, env.WasTruncated)
	assert.Equal(t, "phi3.5:latest", got.Model)
	assert.Equal(t, 4, got.Options["num_thread"])
	assert.Contains(t, got.Prompt, "What is Go?")
}

func TestGenerate_CompressesLongContext(t *testing.T) {
	var prompt string
	p := newTestPipeline(genFunc(func(_ context.Context, r engine.GenerateRequest) (string, error) {
		prompt = r.Prompt
		return "ok.", nil
	}), &fakeSupervisor{healthy: true}, nil)

	doc := strings.Repeat("A", 1500) + strings.Repeat("B", 1000) + strings.Repeat("C", 900)
	env := p.Generate(context.Background(), "Summarize.", doc)
	require.Equal(t, types.OutcomeOK, env.Outcome)
	assert.Contains(t, prompt, OmissionMarker)
	assert.Contains(t, prompt, strings.Repeat("A", 1200)+OmissionMarker)
	assert.Contains(t, prompt, OmissionMarker+strings.Repeat("B", 100)+strings.Repeat("C", 700))
	assert.NotContains(t, prompt, strings.Repeat("A", 1201))
}

func TestGenerate_TruncatesLongAnswer(t *testing.T) {
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		return words(700, "token"), nil
	}), &fakeSupervisor{healthy: true}, nil)
	p.cfg.MaxWords = 500

	env := p.Generate(context.Background(), "q", "")
	assert.True(t, env.WasTruncated)
	assert.Equal(t, 501, WordCount(env.Text))
}

func TestGenerate_EmptyReply(t *testing.T) {
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		return " \n ", nil
	}), &fakeSupervisor{healthy: true}, nil)
	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeEmpty, env.Outcome)
	assert.Equal(t, MsgEmpty, env.Text)
}

func TestGenerate_NoModelSelected(t *testing.T) {
	p := New(Config{
		Engine: genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
			t.Fatal("engine must not be called")
			return "", nil
		}),
		Logger: zerolog.Nop(),
	})
	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeError, env.Outcome)
	assert.Equal(t, MsgNoModel, env.Text)
}

func TestGenerate_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		outcome types.Outcome
		text    string
	}{
		{"timeout", &engine.TimeoutError{Op: "generate", After: time.Second, Err: context.DeadlineExceeded}, types.OutcomeTimeout, MsgTimeout},
		{"generation", &engine.GenerationError{Model: "m", Err: errors.New("model crashed")}, types.OutcomeError, MsgTransient},
		{"plain", errors.New("boom"), types.OutcomeError, MsgTransient + "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
				return "", tc.err
			}), &fakeSupervisor{healthy: true}, nil)
			env := p.Generate(context.Background(), "q", "")
			assert.Equal(t, tc.outcome, env.Outcome)
			assert.True(t, strings.HasPrefix(env.Text, tc.text), env.Text)
		})
	}
}

func TestGenerate_UnhealthyEngineRestartedOnce(t *testing.T) {
	sup := &fakeSupervisor{}
	mem := progress.NewMemory()
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		return "fine.", nil
	}), sup, mem)

	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeOK, env.Outcome)
	assert.Equal(t, 1, sup.count())
	assert.NotEmpty(t, mem.Messages())
}

func TestGenerate_RestartFailureIsUnreachable(t *testing.T) {
	sup := &fakeSupervisor{err: &engine.ConnectivityError{URL: "http://127.0.0.1:11434", Err: errors.New("refused")}}
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		t.Fatal("engine must not be called")
		return "", nil
	}), sup, nil)

	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeUnreachable, env.Outcome)
	assert.Equal(t, MsgUnreachable, env.Text)
	assert.Equal(t, 1, sup.count())
}

func TestGenerate_ConnectionLostTriggersBackgroundRestart(t *testing.T) {
	sup := &fakeSupervisor{healthy: true}
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		return "", &engine.ConnectivityError{URL: "http://127.0.0.1:11434", Err: errors.New("connection reset")}
	}), sup, nil)

	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeUnreachable, env.Outcome)
	p.Wait()
	assert.Equal(t, 1, sup.count())
}

func TestGenerate_ConnectionLostAfterRestartDoesNotRestartAgain(t *testing.T) {
	sup := &fakeSupervisor{}
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		return "", &engine.ConnectivityError{Err: errors.New("refused")}
	}), sup, nil)

	env := p.Generate(context.Background(), "q", "")
	assert.Equal(t, types.OutcomeUnreachable, env.Outcome)
	p.Wait()
	assert.Equal(t, 1, sup.count())
}

func TestGenerate_OneCallInFlight(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return "done.", nil
	}), &fakeSupervisor{healthy: true}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := p.Generate(context.Background(), "q", "")
			assert.Equal(t, types.OutcomeOK, env.Outcome)
		}()
	}
	for i := 0; i < 4; i++ {
		release <- struct{}{}
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak.Load())
}

func TestGenerate_WaitingCallerHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := newTestPipeline(genFunc(func(context.Context, engine.GenerateRequest) (string, error) {
		close(started)
		<-release
		return "done.", nil
	}), &fakeSupervisor{healthy: true}, nil)

	done := make(chan types.ResponseEnvelope)
	go func() { done <- p.Generate(context.Background(), "first", "") }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	env := p.Generate(ctx, "second", "")
	assert.Equal(t, types.OutcomeTimeout, env.Outcome)

	close(release)
	assert.Equal(t, types.OutcomeOK, (<-done).Outcome)
}
