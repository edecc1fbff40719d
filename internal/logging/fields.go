package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldGroup is the standardized structured logging key for newsgroup names.
	FieldGroup = "group"
	// FieldMode is the standardized structured logging key for scan modes (update, backfill, retry).
	FieldMode = "mode"
	// FieldCycle is the standardized structured logging key for orchestrator cycle numbers.
	FieldCycle = "cycle"
	// FieldCycleID is the standardized structured logging key for per-cycle correlation identifiers.
	FieldCycleID = "cycle_id"
	// FieldRunID is the standardized structured logging key for daemon run identifiers.
	FieldRunID = "run_id"
	// FieldEventType classifies log lines for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
