package pipeline

// User-facing outcomes. Every failure becomes one of these strings.
const (
	MsgUnreachable = "Error: the AI engine is not available. Make sure it is running or restart the application."
	MsgTimeout     = "The response is taking longer than expected. Try a more specific question."
	MsgEmpty       = "Could not generate a useful answer. Could you rephrase your question?"
	MsgNoModel     = "No model is selected yet. Run setup first."
	MsgTransient   = "Temporary error: "
)
