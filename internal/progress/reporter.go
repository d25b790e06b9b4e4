// Package progress carries human-readable status messages from background
// work (install, start, pull, warm-up) to whoever owns the interactive side.
package progress

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Reporter receives status messages. Implementations should be lightweight;
// Report must not panic and must not block for long.
type Reporter interface {
	Report(msg string)
}

// Func adapts a plain function to Reporter. A nil Func drops messages.
type Func func(msg string)

func (f Func) Report(msg string) {
	if f != nil {
		f(msg)
	}
}

// Nop drops every message.
var Nop Reporter = nopReporter{}

type nopReporter struct{}

func (nopReporter) Report(string) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop
	}
	return r
}

// Memory stores messages in order for tests and status snapshots.
type Memory struct {
	mu   sync.Mutex
	msgs []string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Report(msg string) {
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
}

// Messages returns a copy of everything reported so far.
func (m *Memory) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Last returns the most recent message or "".
func (m *Memory) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return ""
	}
	return m.msgs[len(m.msgs)-1]
}

// Tee fans a message out to every reporter in order.
func Tee(rs ...Reporter) Reporter {
	var out teeReporter
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type teeReporter []Reporter

func (t teeReporter) Report(msg string) {
	for _, r := range t {
		r.Report(msg)
	}
}

// Log reports each message to logger at info level, or at warn/error when the
// message carries a [WARNING]/[ERROR] tag.
func Log(logger zerolog.Logger) Reporter {
	return Func(func(msg string) {
		ev := logger.Info()
		switch {
		case strings.HasPrefix(msg, TagError):
			ev = logger.Error()
		case strings.HasPrefix(msg, TagWarning):
			ev = logger.Warn()
		}
		ev.Str("component", "progress").Msg(msg)
	})
}
