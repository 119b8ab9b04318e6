package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, carried on the context-scoped logger.
const (
	// FieldRunID identifies one bulk import run
	FieldRunID = "run_id"

	// FieldRequestID is the stub server request ID
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldOperation is the 1-based operation number within a run
	FieldOperation = "operation"

	// FieldWindow is the month label of the date window
	FieldWindow = "window"

	// FieldDataType is the data type name being imported
	FieldDataType = "data_type"

	// FieldExportID is the export identifier sent to the import endpoint
	FieldExportID = "export_id"
)

// Metric fields, attached per log line through the Entry API.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldAttempt is the attempt number of a retried request
	FieldAttempt = "attempt"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the HTTP status or operation status
	FieldStatus = "status"
)
