package manager

import (
	"time"

	"locallm/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	state, lastErr := m.state, m.err
	m.mu.RUnlock()

	if lastErr == "" {
		if err := m.sup.LastError(); err != nil {
			lastErr = err.Error()
		}
	}
	model := m.CurrentModel()
	now := time.Now()
	return types.StatusResponse{
		State:          string(state),
		EngineState:    string(m.sup.State()),
		EnginePID:      m.sup.PID(),
		EngineURL:      m.cfg.EngineURL,
		Model:          model,
		WarmedUp:       m.warm.Loaded(model),
		Hardware:       types.HardwareStatus{Cores: m.hw.Cores, RAMGB: m.hw.RAMGB},
		Threads:        m.pipe.Params().ThreadCount,
		LastError:      lastErr,
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
