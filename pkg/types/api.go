package types

// Outcome classifies how a generate call ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeError       Outcome = "error"
)

// AskRequest is the payload for POST /ask.
type AskRequest struct {
	// Question to answer.
	// example: Summarize chapter two.
	Prompt string `json:"prompt" example:"Summarize chapter two."`
	// Optional reference document text consulted when answering.
	Context string `json:"context,omitempty"`
}

// ResponseEnvelope is the displayable result of a generate call. It is always
// populated, including on failure, where Text carries a user-facing message.
type ResponseEnvelope struct {
	// Answer text, or a user-facing failure message.
	Text string `json:"text"`
	// True when the answer was cut to the word limit.
	// example: false
	WasTruncated bool `json:"was_truncated" example:"false"`
	// Wall-clock duration of the call in milliseconds.
	// example: 5230
	ElapsedMs int64 `json:"elapsed_ms" example:"5230"`
	// Model that produced the answer (empty on early failure).
	// example: phi3.5:latest
	Model string `json:"model,omitempty" example:"phi3.5:latest"`
	// How the call ended.
	// example: ok
	Outcome Outcome `json:"outcome" example:"ok"`
}

// ModelsResponse is returned by GET /models.
type ModelsResponse struct {
	// Known models joined with engine install state.
	Models []ModelDescriptor `json:"models"`
	// Currently selected model id, if any.
	// example: phi3.5:latest
	Selected string `json:"selected,omitempty" example:"phi3.5:latest"`
	// Error listing installed models, if the engine could not be reached.
	Error string `json:"error,omitempty"`
}

// SetupResponse is returned by POST /setup.
type SetupResponse struct {
	// example: true
	OK bool `json:"ok" example:"true"`
	// Selected model after setup.
	// example: phi3.5:latest
	Model string `json:"model,omitempty" example:"phi3.5:latest"`
}

// DiagnosticResponse is returned by GET /diag.
type DiagnosticResponse struct {
	// example: [OK] System working correctly
	Message string `json:"message" example:"[OK] System working correctly"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// HardwareStatus reports the detected host resources.
type HardwareStatus struct {
	// example: 8
	Cores int `json:"cores" example:"8"`
	// example: 16
	RAMGB int `json:"ram_gb" example:"16"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Orchestrator state (idle, setting_up, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Supervisor state (stopped, probing, starting, running, failed).
	// example: running
	EngineState string `json:"engine_state" example:"running"`
	// PID of the engine process owned by this instance (0 when external).
	// example: 12345
	EnginePID int `json:"engine_pid,omitempty" example:"12345"`
	// Engine base URL.
	// example: http://localhost:11434
	EngineURL string `json:"engine_url" example:"http://localhost:11434"`
	// Selected model id.
	// example: phi3.5:latest
	Model string `json:"model,omitempty" example:"phi3.5:latest"`
	// Whether the warm-up call has succeeded.
	// example: true
	WarmedUp bool `json:"warmed_up" example:"true"`
	// Detected hardware.
	Hardware HardwareStatus `json:"hardware"`
	// Threads passed to the engine per request.
	// example: 8
	Threads int `json:"threads" example:"8"`
	// Last error observed by the orchestrator (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the orchestrator in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
