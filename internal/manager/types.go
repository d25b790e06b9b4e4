package manager

// State is the orchestrator's coarse lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateSettingUp State = "setting_up"
	StateReady     State = "ready"
	StateError     State = "error"
)
