package pipeline

// SessionParameters are the inference options sent with every generate call.
// ThreadCount comes from hardware detection and only changes through WithThreads.
type SessionParameters struct {
	ContextWindow    int      `json:"num_ctx"`
	MaxPredictTokens int      `json:"num_predict"`
	ThreadCount      int      `json:"num_thread"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	TopK             int      `json:"top_k"`
	RepeatPenalty    float64  `json:"repeat_penalty"`
	StopSequences    []string `json:"stop"`
}

// DefaultStopSequences end generation at document-style terminators.
var DefaultStopSequences = []string{"###", "End of document", "Complete answer"}

// DefaultParameters returns the standard options for a machine with threads cores.
func DefaultParameters(threads int) SessionParameters {
	if threads < 1 {
		threads = 1
	}
	return SessionParameters{
		ContextWindow:    4096,
		MaxPredictTokens: 1500,
		ThreadCount:      threads,
		Temperature:      0.7,
		TopP:             0.9,
		TopK:             40,
		RepeatPenalty:    1.1,
		StopSequences:    append([]string(nil), DefaultStopSequences...),
	}
}

// WithThreads returns a copy with ThreadCount overridden.
func (p SessionParameters) WithThreads(n int) SessionParameters {
	if n >= 1 {
		p.ThreadCount = n
	}
	return p
}

// Options renders the engine's options map.
func (p SessionParameters) Options() map[string]any {
	opts := map[string]any{
		"num_ctx":        p.ContextWindow,
		"num_predict":    p.MaxPredictTokens,
		"num_thread":     p.ThreadCount,
		"temperature":    p.Temperature,
		"top_p":          p.TopP,
		"top_k":          p.TopK,
		"repeat_penalty": p.RepeatPenalty,
	}
	if len(p.StopSequences) > 0 {
		opts["stop"] = append([]string(nil), p.StopSequences...)
	}
	return opts
}
