package apierr

import "net/http"

// --- Common ---

func InvalidRequestBody() *Error {
	return New(CodeInvalidRequestBody, http.StatusBadRequest, "Invalid request body")
}

func InvalidID(entity string) *Error {
	return New(CodeInvalidID, http.StatusBadRequest, "Invalid "+entity+" ID")
}

func InternalError(cause error) *Error {
	return Wrap(CodeInternalError, http.StatusInternalServerError, "Internal server error", cause)
}

func NotImplemented(feature string) *Error {
	return New(CodeNotImplemented, http.StatusNotImplemented, feature+" is not implemented yet")
}

// --- Document ---

func DocumentRequired() *Error {
	return New(CodeDocumentRequired, http.StatusBadRequest, "Document is required (field 'text' or multipart field 'file')")
}

func DocumentTooLarge(limit int64) *Error {
	return New(CodeDocumentTooLarge, http.StatusRequestEntityTooLarge,
		"Document exceeds the "+humanBytes(limit)+" limit").
		WithDetail("limit_bytes", limit)
}

func UnsupportedFormat(mimeType string) *Error {
	return New(CodeUnsupportedFormat, http.StatusUnsupportedMediaType, "Unsupported document format: "+mimeType).
		WithDetail("mime_type", mimeType)
}

func ProcessFailed(cause error) *Error {
	return Wrap(CodeProcessFailed, http.StatusInternalServerError, "Document processing failed", cause)
}

func UploadFailed(cause error) *Error {
	return Wrap(CodeUploadFailed, http.StatusInternalServerError, "Failed to upload document", cause)
}

// --- Ontology ---

func OntologyNotFound() *Error {
	return New(CodeOntologyNotFound, http.StatusNotFound, "Ontology not found")
}

// --- Run ---

func RunNotFound() *Error {
	return New(CodeRunNotFound, http.StatusNotFound, "Run not found")
}

func InvalidRunID() *Error {
	return New(CodeInvalidRunID, http.StatusBadRequest, "Invalid run ID")
}

func RunCreateFailed(cause error) *Error {
	return Wrap(CodeRunCreateFailed, http.StatusInternalServerError, "Failed to create run", cause)
}

func RunListFailed(cause error) *Error {
	return Wrap(CodeRunListFailed, http.StatusInternalServerError, "Failed to list runs", cause)
}

func RunsUnavailable() *Error {
	return New(CodeRunsUnavailable, http.StatusServiceUnavailable, "Run records are not configured")
}

// --- Queue ---

func QueueUnavailable() *Error {
	return New(CodeQueueUnavailable, http.StatusServiceUnavailable, "Asynchronous processing is not configured")
}

func EnqueueFailed(cause error) *Error {
	return Wrap(CodeEnqueueFailed, http.StatusInternalServerError, "Failed to enqueue document", cause)
}

// --- Auth ---

func Unauthorized() *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, "Authentication required")
}

func Forbidden() *Error {
	return New(CodeForbidden, http.StatusForbidden, "Insufficient scope")
}

// --- Health ---

func DatabaseNotReady() *Error {
	return New(CodeDatabaseNotReady, http.StatusServiceUnavailable, "Database not ready")
}

func BackendNotReady(name string) *Error {
	return New(CodeBackendNotReady, http.StatusServiceUnavailable, "Backend "+name+" not ready").
		WithDetail("backend", name)
}
