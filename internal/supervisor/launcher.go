package supervisor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"locallm/internal/execx"
)

// Launcher is one strategy for bringing the engine up. Launch returns an
// owned *Process, or nil when the spawned process is detached and not
// supervised (the engine is then reached only through its endpoint).
type Launcher interface {
	Name() string
	Launch(ctx context.Context, bin string) (*Process, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc struct {
	N string
	F func(ctx context.Context, bin string) (*Process, error)
}

func (l LauncherFunc) Name() string { return l.N }

func (l LauncherFunc) Launch(ctx context.Context, bin string) (*Process, error) {
	return l.F(ctx, bin)
}

// DetachedLauncher starts the engine fully detached: a hidden Start-Process
// on Windows, `nohup <bin> serve` in a new session elsewhere. The process is
// not owned; Stop leaves it alone.
type DetachedLauncher struct {
	Logger zerolog.Logger
}

func (DetachedLauncher) Name() string { return "detached" }

func (l DetachedLauncher) Launch(ctx context.Context, bin string) (*Process, error) {
	cmd := detachedCommand(bin)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start detached engine: %w", err)
	}
	l.Logger.Info().Int("pid", cmd.Process.Pid).Str("cmd", cmd.String()).Msg("detached engine launched")
	// Reap the launcher process; its exit says nothing about engine health.
	go func() { _ = cmd.Wait() }()
	return nil, nil
}

// DefaultWaitDelay bounds how long reaping an exited engine waits for
// children that still hold its output pipes.
const DefaultWaitDelay = 2 * time.Second

// BackgroundLauncher runs `<bin> serve` as an owned child with OLLAMA_HOST
// pinned to Host and output captured into a bounded tail buffer.
type BackgroundLauncher struct {
	Host      string
	TailBytes int
	WaitDelay time.Duration
	Logger    zerolog.Logger
}

func (BackgroundLauncher) Name() string { return "background" }

func (l BackgroundLauncher) Launch(ctx context.Context, bin string) (*Process, error) {
	// Not CommandContext: the engine must outlive the request that started it.
	cmd := exec.Command(bin, "serve")
	cmd.Env = os.Environ()
	if l.Host != "" {
		cmd.Env = append(cmd.Env, "OLLAMA_HOST="+l.Host)
	}
	p, err := startOwned(cmd, l.TailBytes, l.WaitDelay)
	if err != nil {
		return nil, fmt.Errorf("start background engine: %w", err)
	}
	l.Logger.Info().Int("pid", p.PID()).Str("host", l.Host).Msg("background engine launched")
	return p, nil
}

// startOwned starts cmd as the leader of a new process group with its output
// captured, and returns the supervised handle.
func startOwned(cmd *exec.Cmd, tailBytes int, waitDelay time.Duration) (*Process, error) {
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	tail := execx.NewTailBuffer(tailBytes)
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.WaitDelay = waitDelay
	execx.Detach(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return newProcess(cmd, tail), nil
}

// HostFromURL derives the OLLAMA_HOST value for an engine base URL.
// "localhost" is pinned to 127.0.0.1 and the port defaults to 11434.
func HostFromURL(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "127.0.0.1:11434"
	}
	host, port := u.Hostname(), u.Port()
	if host == "" || strings.EqualFold(host, "localhost") {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "11434"
	}
	return host + ":" + port
}
