package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"locallm/internal/catalog"
	"locallm/internal/progress"
)

const diagnosticTimeout = 10 * time.Second

// Diagnostic messages, in the order the checks run.
const (
	DiagEngineDown = progress.TagError + " Engine server is not running"
	DiagNoModels   = progress.TagError + " No models available"
	DiagOK         = progress.TagOK + " System working correctly"
)

// DiagnosticCheck reports the first problem found, checking in order: engine
// health, model listing, at least one model, the current model installed.
func (m *Manager) DiagnosticCheck(ctx context.Context) string {
	if !m.engine.Healthy(ctx) {
		return DiagEngineDown
	}
	tctx, cancel := context.WithTimeout(ctx, diagnosticTimeout)
	defer cancel()
	names, err := m.engine.Tags(tctx)
	if err != nil {
		return fmt.Sprintf("%s Error querying models: %v", progress.TagError, err)
	}
	if len(names) == 0 {
		return DiagNoModels
	}
	model := m.CurrentModel()
	if _, ok := catalog.Match(names, model); !ok {
		return fmt.Sprintf("%s Model %s not found. Available models: %s",
			progress.TagError, model, strings.Join(names, ", "))
	}
	return DiagOK
}
