package catalog

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"locallm/internal/engine"
	"locallm/internal/execx"
	"locallm/internal/progress"
)

// BinaryFunc returns the engine binary to invoke; it may change after install.
type BinaryFunc func() string

// CLIPuller runs `<bin> pull <model>`. Exit code 0 is success; a non-zero
// exit surfaces the captured stderr.
type CLIPuller struct {
	Runner execx.Runner
	Binary BinaryFunc
}

func (p CLIPuller) Pull(ctx context.Context, model string) error {
	_, err := p.Runner.Run(ctx, execx.Cmd{Path: p.Binary(), Args: []string{"pull", model}})
	if err != nil {
		return &engine.DownloadError{Model: model, Err: err}
	}
	return nil
}

// CLILister parses `<bin> list`.
type CLILister struct {
	Runner execx.Runner
	Binary BinaryFunc
}

func (l CLILister) Tags(ctx context.Context) ([]string, error) {
	res, err := l.Runner.Run(ctx, execx.Cmd{Path: l.Binary(), Args: []string{"list"}})
	if err != nil {
		return nil, err
	}
	return ParseList(res.Stdout), nil
}

// ParseList extracts model names (first column) from `list` output, skipping
// the header row.
func ParseList(out string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(out))
	first := true
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(fields[0], "NAME") {
				continue
			}
		}
		names = append(names, fields[0])
	}
	return names
}

// PullClient is the engine API surface APIPuller needs.
type PullClient interface {
	Pull(ctx context.Context, model string, fn func(engine.Progress)) error
}

// APIPuller pulls through the engine HTTP API and reports download percent.
type APIPuller struct {
	Client   PullClient
	Reporter progress.Reporter
	Interval time.Duration
}

func (p APIPuller) Pull(ctx context.Context, model string) error {
	rep := progress.OrNop(p.Reporter)
	interval := p.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	every := &rate.Sometimes{Interval: interval}
	last, status := -1, ""
	return p.Client.Pull(ctx, model, func(pr engine.Progress) {
		// Each layer reports its own status and restarts from zero.
		if pr.Status != status {
			status, last = pr.Status, -1
		}
		pct := pr.Percent()
		if pct < 0 || pct <= last {
			return
		}
		emit := func() {
			last = pct
			rep.Report(fmt.Sprintf("%s Downloading %s... %d%% (%s / %s)", progress.TagDownload, model, pct,
				humanize.Bytes(uint64(pr.Completed)), humanize.Bytes(uint64(pr.Total))))
		}
		if pct == 100 {
			emit()
			return
		}
		every.Do(emit)
	})
}
