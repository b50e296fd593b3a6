package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldInput      = "input"
	FieldOutput     = "output"
	FieldWorkingDir = "working_dir"
	FieldAddr       = "addr"
	FieldDuration   = "duration"

	// Configuration fields.
	FieldJobs     = "jobs"
	FieldEncoding = "encoding"
	FieldWidth    = "width"

	// Engine fields.
	FieldHandle      = "handle"
	FieldBlocks      = "blocks"
	FieldBlock       = "block"
	FieldRange       = "range"
	FieldIteration   = "iteration"
	FieldFragments   = "fragments"
	FieldDiagnostics = "diagnostics"
	FieldCompiles    = "compiles"
	FieldRequests    = "requests"
	FieldTop         = "top"
	FieldHeight      = "height"
	FieldReason      = "reason"
	FieldKind        = "kind"

	// Statistics fields.
	FieldDocuments        = "documents"
	FieldDocumentsFailed  = "documents_failed"
	FieldDiagnosticsTotal = "diagnostics_total"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"

	// Request fields.
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldRequestID = "request_id"
)
