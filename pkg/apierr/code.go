package apierr

// Code is a machine-readable error code returned in API responses.
type Code string

// Common errors.
const (
	CodeInvalidRequestBody Code = "INVALID_REQUEST_BODY"
	CodeInvalidID          Code = "INVALID_ID"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
)

// Document errors.
const (
	CodeDocumentRequired  Code = "DOCUMENT_REQUIRED"
	CodeDocumentTooLarge  Code = "DOCUMENT_TOO_LARGE"
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeProcessFailed     Code = "PROCESS_FAILED"
	CodeUploadFailed      Code = "UPLOAD_FAILED"
)

// Ontology errors.
const (
	CodeOntologyNotFound Code = "ONTOLOGY_NOT_FOUND"
)

// Run errors.
const (
	CodeRunNotFound     Code = "RUN_NOT_FOUND"
	CodeInvalidRunID    Code = "INVALID_RUN_ID"
	CodeRunCreateFailed Code = "RUN_CREATE_FAILED"
	CodeRunListFailed   Code = "RUN_LIST_FAILED"
	CodeRunsUnavailable Code = "RUNS_UNAVAILABLE"
)

// Queue errors.
const (
	CodeQueueUnavailable Code = "QUEUE_UNAVAILABLE"
	CodeEnqueueFailed    Code = "ENQUEUE_FAILED"
)

// Auth errors.
const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
)

// Health errors.
const (
	CodeDatabaseNotReady Code = "DATABASE_NOT_READY"
	CodeBackendNotReady  Code = "BACKEND_NOT_READY"
)
