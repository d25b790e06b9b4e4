// Package engine talks to the local inference engine over HTTP and defines
// the error taxonomy shared by everything that drives it.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultBaseURL is the engine's standard local endpoint.
const DefaultBaseURL = "http://localhost:11434"

// HealthTimeout bounds a single health probe.
const HealthTimeout = 5 * time.Second

// GenerateRequest is a non-streaming generate call.
type GenerateRequest struct {
	Model   string
	Prompt  string
	Options map[string]any
}

// Progress is one pull status update.
type Progress struct {
	Status    string
	Total     int64
	Completed int64
}

// Percent returns the completed share in [0,100], or -1 when the total is unknown.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return -1
	}
	pct := int(p.Completed * 100 / p.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Client is a thin wrapper over the engine API. All calls are bounded by the
// caller's context; the underlying http.Client has no global timeout.
type Client struct {
	base *url.URL
	hc   *http.Client
	api  *api.Client
}

// NewClient returns a client for baseURL ("" uses DefaultBaseURL).
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("engine url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("engine url %q: scheme and host required", baseURL)
	}
	if hc == nil {
		// Timeout=0: every call carries a context deadline instead.
		hc = &http.Client{Timeout: 0}
	}
	return &Client{base: u, hc: hc, api: api.NewClient(u, hc)}, nil
}

// BaseURL returns the engine endpoint.
func (c *Client) BaseURL() string { return c.base.String() }

// Healthy reports whether GET /api/tags answers 200 within HealthTimeout.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Tags lists the names of installed models.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, Classify(err, "list models", c.BaseURL())
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Generate runs a single non-streaming completion and returns the reply text.
func (c *Client) Generate(ctx context.Context, r GenerateRequest) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   r.Model,
		Prompt:  r.Prompt,
		Stream:  &stream,
		Options: r.Options,
	}
	var sb strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		cerr := Classify(err, "generate", c.BaseURL())
		if ge, ok := cerr.(*GenerationError); ok {
			ge.Model = r.Model
		}
		return "", cerr
	}
	return sb.String(), nil
}

// Pull downloads model through the API, invoking fn for each status update.
func (c *Client) Pull(ctx context.Context, model string, fn func(Progress)) error {
	err := c.api.Pull(ctx, &api.PullRequest{Model: model}, func(p api.ProgressResponse) error {
		if fn != nil {
			fn(Progress{Status: p.Status, Total: p.Total, Completed: p.Completed})
		}
		return nil
	})
	if err != nil {
		cerr := Classify(err, "pull "+model, c.BaseURL())
		if IsTimeout(cerr) || IsConnectivity(cerr) {
			return cerr
		}
		return &DownloadError{Model: model, Err: err}
	}
	return nil
}
