package config

// Package defaults applied by WithDefaults.
const (
	DefaultAddr                 = "127.0.0.1:8085"
	DefaultLogLevel             = "info"
	DefaultEngineURL            = "http://localhost:11434"
	DefaultEngineBinary         = "ollama"
	DefaultStartAttempts        = 30
	DefaultBackgroundAttempts   = 25
	DefaultPollIntervalMs       = 1000
	DefaultStartDeadlineSeconds = 35
	DefaultStopTimeoutSeconds   = 10
	DefaultInstallSettleSeconds = 2
	DefaultPullMode             = "cli"
	DefaultPullTimeoutMinutes   = 60
	DefaultWarmupTimeoutSeconds = 20
	DefaultGenerateTimeout      = 300
	DefaultContextThreshold     = 2000
	DefaultContextHead          = 1200
	DefaultContextTail          = 800
	DefaultMaxWords             = 600
	DefaultNumCtx               = 4096
	DefaultNumPredict           = 1500
	DefaultTemperature          = 0.7
	DefaultTopP                 = 0.9
	DefaultTopK                 = 40
	DefaultRepeatPenalty        = 1.1
	DefaultMaxBodyBytes         = 4 << 20
)

// DefaultCandidateModels is the ordered fallback list tried during setup.
var DefaultCandidateModels = []string{"phi3.5:latest", "phi:2.7b", "mistral:7b"}

// DefaultStop holds the stop sequences sent with every generate call.
var DefaultStop = []string{"###", "End of document", "Complete answer"}

// Float returns a pointer to v, for the optional sampling fields.
func Float(v float64) *float64 { return &v }

// Default returns a fully populated configuration.
func Default() Config { return Config{}.WithDefaults() }

// WithDefaults returns a copy of c with every unset field replaced by its default.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.EngineURL == "" {
		c.EngineURL = DefaultEngineURL
	}
	if c.EngineBinary == "" {
		c.EngineBinary = DefaultEngineBinary
	}
	if c.StartAttempts <= 0 {
		c.StartAttempts = DefaultStartAttempts
	}
	if c.BackgroundAttempts <= 0 {
		c.BackgroundAttempts = DefaultBackgroundAttempts
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.StartDeadlineSeconds <= 0 {
		c.StartDeadlineSeconds = DefaultStartDeadlineSeconds
	}
	if c.StopTimeoutSeconds <= 0 {
		c.StopTimeoutSeconds = DefaultStopTimeoutSeconds
	}
	if c.InstallSettleSeconds < 0 {
		c.InstallSettleSeconds = 0
	} else if c.InstallSettleSeconds == 0 {
		c.InstallSettleSeconds = DefaultInstallSettleSeconds
	}
	if len(c.CandidateModels) == 0 {
		c.CandidateModels = append([]string(nil), DefaultCandidateModels...)
	}
	if c.PullMode == "" {
		c.PullMode = DefaultPullMode
	}
	if c.PullTimeoutMinutes <= 0 {
		c.PullTimeoutMinutes = DefaultPullTimeoutMinutes
	}
	if c.WarmupTimeoutSeconds <= 0 {
		c.WarmupTimeoutSeconds = DefaultWarmupTimeoutSeconds
	}
	if c.GenerateTimeoutSeconds <= 0 {
		c.GenerateTimeoutSeconds = DefaultGenerateTimeout
	}
	if c.ContextThreshold <= 0 {
		c.ContextThreshold = DefaultContextThreshold
	}
	if c.ContextHead <= 0 {
		c.ContextHead = DefaultContextHead
	}
	if c.ContextTail <= 0 {
		c.ContextTail = DefaultContextTail
	}
	if c.MaxWords <= 0 {
		c.MaxWords = DefaultMaxWords
	}
	if c.NumCtx <= 0 {
		c.NumCtx = DefaultNumCtx
	}
	if c.NumPredict <= 0 {
		c.NumPredict = DefaultNumPredict
	}
	// Zero is a meaningful sampling value (greedy decoding), so only an
	// absent or negative setting takes the default.
	if c.Temperature == nil || *c.Temperature < 0 {
		c.Temperature = Float(DefaultTemperature)
	}
	if c.TopP == nil || *c.TopP < 0 {
		c.TopP = Float(DefaultTopP)
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.RepeatPenalty <= 0 {
		c.RepeatPenalty = DefaultRepeatPenalty
	}
	if c.Stop == nil {
		c.Stop = append([]string(nil), DefaultStop...)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}
