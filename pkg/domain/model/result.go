package model

// Canonical user-facing messages. Downstream consumers match on these
// verbatim, so they must never be paraphrased.
const (
	// RefusalMessage is returned when no authorized context is available
	RefusalMessage = "Sorry, you are not authorized to access this information."

	// ToolFailureMessage is the safe terminal answer when a registered tool fails
	ToolFailureMessage = "Sorry, I encountered an internal error."

	// StepExhaustionMessage is returned when the reasoning loop runs out of steps
	StepExhaustionMessage = "I couldn't complete the reasoning."

	// UnknownTaskMessage is returned when a task matches no recognized category
	UnknownTaskMessage = "Could not understand task type."

	// IngestDeniedMessage is returned when a non-admin requests ingestion
	IngestDeniedMessage = "You are not authorized to ingest documents."

	// UnauthorizedMessage is returned when no requester is present
	UnauthorizedMessage = "User not found. Unauthorized."

	// NotInContextMessage is the instruction-mandated answer when the
	// authorized context does not contain an explicit answer
	NotInContextMessage = "The information is not available in the provided context."
)

// FileStatus is the outcome of processing one file in an ingestion batch
type FileStatus string

const (
	FileStatusSuccess FileStatus = "success"
	FileStatusFailed  FileStatus = "failed"
)

// Failure reasons for per-file ingestion results
const (
	ReasonEmpty             = "empty"
	ReasonNoChunks          = "no_chunks"
	ReasonEmbeddingMismatch = "embedding_mismatch"
)

// FileResult records the outcome of ingesting a single file. A failed
// file never aborts the rest of its batch.
type FileResult struct {
	Filename       string
	Status         FileStatus
	DocumentID     DocumentID
	ChunksUploaded int
	Reason         string
}

// PlanResult is the structured outcome of an orchestrated task.
// Classification and authorization outcomes are carried here, never
// as errors.
type PlanResult struct {
	Result string
	Files  []FileResult
}
