package manager

import (
	"context"

	"github.com/google/uuid"

	"locallm/internal/progress"
)

// SetupEnvironment brings the system to a ready state: start (or adopt) the
// engine, ensure the first available candidate model, warm it up. Concurrent
// callers share one run and its result.
func (m *Manager) SetupEnvironment(ctx context.Context) bool {
	v, _, _ := m.setup.Do("setup", func() (any, error) {
		return m.setupEnvironment(ctx), nil
	})
	return v.(bool)
}

func (m *Manager) setupEnvironment(ctx context.Context) bool {
	runID := uuid.NewString()
	log := m.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("setting up environment")
	m.setState(StateSettingUp, "")
	m.publish(EventSetupStart, runID, "", map[string]any{"candidates": m.cfg.CandidateModels})
	m.reporter.Report(progress.TagStart + " Starting AI system...")

	if err := m.sup.Start(ctx); err != nil {
		log.Error().Err(err).Msg("engine could not be started")
		return m.setupFailed(runID, err)
	}
	m.publish(EventEngineReady, runID, "", map[string]any{"pid": m.sup.PID(), "owned": m.sup.Owned()})

	model, err := m.cat.EnsureAny(ctx, m.cfg.CandidateModels)
	if err != nil {
		log.Error().Err(err).Msg("no candidate model could be made available")
		return m.setupFailed(runID, err)
	}
	m.publish(EventModelSelected, runID, model, nil)

	m.warm.Run(ctx, model)
	m.publish(EventWarmupDone, runID, model, map[string]any{"loaded": m.warm.Loaded(model)})

	m.setState(StateReady, "")
	log.Info().Str("model", model).Msg("environment ready")
	m.reporter.Report(progress.TagOK + " AI system ready to use!")
	m.publish(EventSetupReady, runID, model, nil)
	return true
}

func (m *Manager) setupFailed(runID string, err error) bool {
	m.setState(StateError, err.Error())
	m.reporter.Report(progress.TagError + " Error setting up the AI system")
	m.publish(EventSetupFailed, runID, "", map[string]any{"error": err.Error()})
	return false
}
