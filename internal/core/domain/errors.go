package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrDocumentNotFound indicates the document does not exist
	ErrDocumentNotFound = errors.New("document not found")

	// ErrProjectNotFound indicates the project does not exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrSessionNotFound indicates the QA session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrTaskNotFound indicates the task does not exist
	ErrTaskNotFound = errors.New("task not found")

	// ErrParseFailed indicates the text extractor could not process the document
	ErrParseFailed = errors.New("parse failed")

	// ErrUnsupportedFormat indicates no extractor is registered for the content type
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmbeddingFailed indicates the embedding backend is misconfigured or errored
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexFailed indicates a similarity index operation failed
	ErrIndexFailed = errors.New("index operation failed")

	// ErrGenerationFailed indicates the generation backend is unavailable or errored
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoContext indicates retrieval returned zero results for a question
	ErrNoContext = errors.New("no relevant context found")

	// ErrAlreadyProcessing indicates an indexing run is already active for the document
	ErrAlreadyProcessing = errors.New("document is already processing")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an external service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
