// Package manager is the orchestration layer that owns one local engine and
// everything needed to answer questions with it. It is split by concern:
//
//   - manager.go: Manager type, constructor, simple getters.
//   - config.go: functional options and wiring of collaborators.
//   - types.go: orchestrator states.
//   - setup.go: SetupEnvironment (start engine, ensure a model, warm up).
//   - diagnostic.go: DiagnosticCheck.
//   - status_report.go: Status reporting.
//   - events.go: lifecycle events for observers.
//
// The engine itself is opaque: the manager only talks to it through the
// supervisor, catalog, warmup and pipeline packages. External packages should
// use the public methods only (New, SetupEnvironment, Generate,
// DiagnosticCheck, ListModels, Status, Ready, Stop).
package manager
