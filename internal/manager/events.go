package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Event is an orchestrator milestone. Events of one setup run share RunID.
type Event struct {
	Name   string
	RunID  string
	Model  string
	At     time.Time
	Fields map[string]any
}

// Event names published by the manager.
const (
	EventSetupStart    = "setup_start"
	EventEngineReady   = "engine_ready"
	EventModelSelected = "model_selected"
	EventWarmupDone    = "warmup_done"
	EventSetupReady    = "setup_ready"
	EventSetupFailed   = "setup_failed"
	EventStopped       = "stopped"
)

// EventPublisher receives events from the manager. Publish is called on the
// manager's goroutine and must not block.
type EventPublisher interface {
	Publish(Event)
}

// LogPublisher writes events to a logger at debug level. It is the default.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Logger.Debug().Str("event", e.Name)
	if e.RunID != "" {
		ev = ev.Str("run_id", e.RunID)
	}
	if e.Model != "" {
		ev = ev.Str("model", e.Model)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("manager event")
}
