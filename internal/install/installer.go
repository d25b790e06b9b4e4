// Package install detects the engine binary and installs it when absent.
package install

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"locallm/internal/common/fsutil"
	"locallm/internal/engine"
	"locallm/internal/execx"
	"locallm/internal/progress"
	"locallm/internal/retry"
)

// DefaultInstallTimeout bounds the silent install command.
const DefaultInstallTimeout = 5 * time.Minute

// Plan describes how to install the engine on one platform.
type Plan struct {
	URL  string
	File string
	// Command builds the install invocation for the downloaded file.
	Command func(path string) execx.Cmd
}

// DefaultPlans returns the built-in per-GOOS install plans.
func DefaultPlans() map[string]Plan {
	return map[string]Plan{
		"windows": {
			URL:     "https://ollama.com/download/OllamaSetup.exe",
			File:    "OllamaSetup.exe",
			Command: func(p string) execx.Cmd { return execx.Cmd{Path: p, Args: []string{"/S"}} },
		},
		"linux": {
			URL:     "https://ollama.com/install.sh",
			File:    "ollama-install.sh",
			Command: func(p string) execx.Cmd { return execx.Cmd{Path: "sh", Args: []string{p}} },
		},
	}
}

// Config wires an Installer. Zero values select production behaviour.
type Config struct {
	Binary         string
	GOOS           string
	HTTPClient     *http.Client
	Runner         execx.Runner
	Reporter       progress.Reporter
	Logger         zerolog.Logger
	WorkDir        string
	Settle         time.Duration
	InstallTimeout time.Duration
	Clock          retry.Clock
	Plans          map[string]Plan

	LookPath func(string) (string, error)
	Exists   func(string) bool
	Getenv   func(string) string
}

// Installer implements binary detection and platform installation.
type Installer struct {
	cfg Config

	mu       sync.Mutex
	resolved string
}

// New returns an Installer with defaults applied.
func New(cfg Config) *Installer {
	if cfg.Binary == "" {
		cfg.Binary = "ollama"
	}
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 0}
	}
	if cfg.Runner == nil {
		cfg.Runner = execx.OSRunner{Hidden: true}
	}
	cfg.Reporter = progress.OrNop(cfg.Reporter)
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.InstallTimeout <= 0 {
		cfg.InstallTimeout = DefaultInstallTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = retry.RealClock{}
	}
	if cfg.Plans == nil {
		cfg.Plans = DefaultPlans()
	}
	if cfg.LookPath == nil {
		cfg.LookPath = exec.LookPath
	}
	if cfg.Exists == nil {
		cfg.Exists = fsutil.IsExecutable
	}
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	return &Installer{cfg: cfg}
}

// IsInstalled reports whether the engine binary can be found on PATH or in a
// known install directory.
func (i *Installer) IsInstalled(ctx context.Context) bool {
	p, ok := i.resolve()
	i.mu.Lock()
	if ok {
		i.resolved = p
	}
	i.mu.Unlock()
	if ok {
		i.cfg.Logger.Debug().Str("path", p).Msg("engine binary found")
	}
	return ok
}

// BinaryPath returns the last resolved binary path, or the configured name
// when nothing has been resolved yet.
func (i *Installer) BinaryPath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.resolved != "" {
		return i.resolved
	}
	return i.cfg.Binary
}

func (i *Installer) resolve() (string, bool) {
	bin, err := fsutil.ExpandHome(i.cfg.Binary)
	if err != nil {
		bin = i.cfg.Binary
	}
	if strings.ContainsAny(bin, `/\`) {
		return bin, i.cfg.Exists(bin)
	}
	if p, err := i.cfg.LookPath(bin); err == nil {
		return p, true
	}
	return fsutil.FirstMatch(KnownLocations(i.cfg.GOOS, bin, i.cfg.Getenv), i.cfg.Exists)
}

// KnownLocations lists the default install paths for bin on goos.
func KnownLocations(goos, bin string, getenv func(string) string) []string {
	if goos == "windows" {
		exe := bin
		if !strings.HasSuffix(strings.ToLower(exe), ".exe") {
			exe += ".exe"
		}
		var out []string
		for _, env := range []string{"LOCALAPPDATA", "PROGRAMFILES", "PROGRAMFILES(X86)"} {
			base := getenv(env)
			if base == "" {
				continue
			}
			if env == "LOCALAPPDATA" {
				base = filepath.Join(base, "Programs")
			}
			out = append(out, filepath.Join(base, "Ollama", exe))
		}
		return append(out, exe)
	}
	out := []string{
		filepath.Join("/usr/local/bin", bin),
		filepath.Join("/usr/bin", bin),
		filepath.Join("/opt/homebrew/bin", bin),
	}
	if home := getenv("HOME"); home != "" {
		out = append(out, filepath.Join(home, ".local", "bin", bin))
	}
	return out
}

// Install downloads and runs the platform installer. It returns an
// *engine.InstallationError on any failure.
func (i *Installer) Install(ctx context.Context) error {
	plan, ok := i.cfg.Plans[i.cfg.GOOS]
	if !ok {
		i.cfg.Reporter.Report(progress.TagError + " Automatic installation is not supported on " + i.cfg.GOOS)
		return &engine.InstallationError{Reason: "unsupported platform " + i.cfg.GOOS}
	}
	log := i.cfg.Logger.With().Str("component", "install").Str("goos", i.cfg.GOOS).Logger()
	i.cfg.Reporter.Report(progress.TagInstall + " Starting engine installation...")

	dst := filepath.Join(i.cfg.WorkDir, plan.File)
	defer func() {
		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("file", dst).Msg("remove installer")
		}
	}()

	i.cfg.Reporter.Report(progress.TagDownload + " Downloading engine installer...")
	if err := i.download(ctx, plan.URL, dst); err != nil {
		i.cfg.Reporter.Report(progress.TagError + " Could not download the engine installer")
		return &engine.InstallationError{Reason: "download installer", Err: err}
	}

	i.cfg.Reporter.Report(progress.TagInstall + " Installing engine... this may take a few minutes.")
	runCtx, cancel := context.WithTimeout(ctx, i.cfg.InstallTimeout)
	defer cancel()
	cmd := plan.Command(dst)
	cmd.Dir = i.cfg.WorkDir
	res, err := i.cfg.Runner.Run(runCtx, cmd)
	if err != nil {
		i.cfg.Reporter.Report(progress.TagError + " Engine installation failed")
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = &engine.TimeoutError{Op: "install", After: i.cfg.InstallTimeout, Err: err}
		}
		log.Error().Err(err).Str("stderr", res.Stderr).Msg("install command failed")
		return &engine.InstallationError{Reason: "install command", Err: err}
	}

	i.cfg.Reporter.Report(progress.TagOK + " Engine installed")
	if !i.IsInstalled(ctx) {
		log.Warn().Msg("installer succeeded but binary not found yet")
	}
	if i.cfg.Settle > 0 {
		i.cfg.Reporter.Report(progress.TagWait + " Finishing setup...")
		if err := retry.Sleep(ctx, i.cfg.Clock, i.cfg.Settle); err != nil {
			return &engine.InstallationError{Reason: "settle", Err: err}
		}
	}
	log.Info().Str("binary", i.BinaryPath()).Msg("engine installed")
	return nil
}
