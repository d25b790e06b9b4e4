// Package catalog tracks which models the engine has installed, pulls
// missing ones, and remembers which model is selected for generation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"locallm/internal/engine"
	"locallm/internal/progress"
	"locallm/internal/registry"
	"locallm/pkg/types"
)

// DefaultPullTimeout bounds a single model download.
const DefaultPullTimeout = time.Hour

// Lister enumerates installed model names.
type Lister interface {
	Tags(ctx context.Context) ([]string, error)
}

// Puller downloads a model. It is called at most once per Ensure.
type Puller interface {
	Pull(ctx context.Context, model string) error
}

// Config wires a Catalog.
type Config struct {
	Lister      Lister
	Fallback    Lister
	Puller      Puller
	Registry    *registry.Registry
	PullTimeout time.Duration
	Reporter    progress.Reporter
	Logger      zerolog.Logger
}

// Catalog is safe for concurrent use. The selected model only changes
// through Ensure/EnsureAny.
type Catalog struct {
	cfg Config

	mu         sync.RWMutex
	selected   string
	downloaded map[string]bool
}

// New returns a Catalog with defaults applied.
func New(cfg Config) *Catalog {
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.PullTimeout <= 0 {
		cfg.PullTimeout = DefaultPullTimeout
	}
	cfg.Reporter = progress.OrNop(cfg.Reporter)
	cfg.Logger = cfg.Logger.With().Str("component", "catalog").Logger()
	return &Catalog{cfg: cfg, downloaded: make(map[string]bool)}
}

// Selected returns the model chosen for generation, or "".
func (c *Catalog) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

func (c *Catalog) markSelected(name string) {
	c.mu.Lock()
	c.downloaded[name] = true
	c.selected = name
	c.mu.Unlock()
}

// Installed returns the installed model names, asking the engine API first
// and falling back to the CLI listing.
func (c *Catalog) Installed(ctx context.Context) ([]string, error) {
	if c.cfg.Lister == nil && c.cfg.Fallback == nil {
		return nil, errors.New("catalog: no lister configured")
	}
	var errs []error
	for _, l := range []Lister{c.cfg.Lister, c.cfg.Fallback} {
		if l == nil {
			continue
		}
		names, err := l.Tags(ctx)
		if err == nil {
			c.mu.Lock()
			for _, n := range names {
				c.downloaded[n] = true
			}
			c.mu.Unlock()
			return names, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// List returns installed models joined with registry metadata.
func (c *Catalog) List(ctx context.Context) ([]types.ModelDescriptor, error) {
	names, err := c.Installed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.ModelDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, c.cfg.Registry.Descriptor(n, true))
	}
	return out, nil
}

// Descriptors returns every registry entry with its last known download state,
// followed by installed models the registry does not know about.
func (c *Catalog) Descriptors() []types.ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	var out []types.ModelDescriptor
	for _, name := range c.cfg.Registry.Names() {
		seen[name] = true
		out = append(out, c.cfg.Registry.Descriptor(name, c.downloaded[name]))
	}
	for name := range c.downloaded {
		if !seen[name] {
			out = append(out, c.cfg.Registry.Descriptor(name, true))
		}
	}
	return out
}

// Match finds id among installed names: exact, or with the implicit
// ":latest" tag when id carries none.
func Match(installed []string, id string) (string, bool) {
	for _, n := range installed {
		if n == id {
			return n, true
		}
	}
	if !strings.Contains(id, ":") {
		for _, n := range installed {
			if n == id+":latest" {
				return n, true
			}
		}
	}
	return "", false
}

// Ensure makes id available and selects it. An installed model is selected
// without any download; otherwise one pull is attempted under PullTimeout.
func (c *Catalog) Ensure(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &engine.DownloadError{Model: id, Err: errors.New("empty model id")}
	}
	log := c.cfg.Logger.With().Str("model", id).Logger()

	installed, err := c.Installed(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not list installed models; pulling anyway")
	}
	if name, ok := Match(installed, id); ok {
		c.markSelected(name)
		c.cfg.Reporter.Report(fmt.Sprintf("%s Model %s available", progress.TagOK, name))
		return nil
	}
	if c.cfg.Puller == nil {
		return &engine.DownloadError{Model: id, Err: errors.New("no puller configured")}
	}

	c.cfg.Reporter.Report(fmt.Sprintf("%s Downloading model %s...", progress.TagDownload, id))
	if e, ok := c.cfg.Registry.Lookup(id); ok && e.Description != "" {
		c.cfg.Reporter.Report(fmt.Sprintf("%s %s (%.1f GB)", progress.TagInfo, e.Description, e.SizeGB))
	}
	pctx, cancel := context.WithTimeout(ctx, c.cfg.PullTimeout)
	defer cancel()
	start := time.Now()
	if err := c.cfg.Puller.Pull(pctx, id); err != nil {
		if errors.Is(pctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &engine.TimeoutError{Op: "pull " + id, After: c.cfg.PullTimeout, Err: err}
			c.cfg.Reporter.Report(fmt.Sprintf("%s Timed out downloading model %s", progress.TagError, id))
		} else {
			if !engine.IsDownload(err) {
				err = &engine.DownloadError{Model: id, Err: err}
			}
			c.cfg.Reporter.Report(fmt.Sprintf("%s Error downloading model %s", progress.TagError, id))
		}
		log.Error().Err(err).Msg("pull failed")
		return err
	}
	c.markSelected(id)
	log.Info().Dur("took", time.Since(start)).Msg("model pulled")
	c.cfg.Reporter.Report(fmt.Sprintf("%s Model %s downloaded", progress.TagOK, id))
	return nil
}

// EnsureAny tries candidates in order and stops at the first that succeeds.
// When all fail it returns an *engine.ModelUnavailableError wrapping every
// candidate's error.
func (c *Catalog) EnsureAny(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", &engine.ModelUnavailableError{Err: errors.New("no candidate models")}
	}
	var errs []error
	for _, id := range candidates {
		if err := c.Ensure(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return c.Selected(), nil
	}
	return "", &engine.ModelUnavailableError{Candidates: candidates, Err: errors.Join(errs...)}
}
