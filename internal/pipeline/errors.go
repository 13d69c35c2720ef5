package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by the coordinator while the readiness gate is
// closed. The transport maps it to 503.
var ErrNotReady = errors.New("pipeline not ready")

// Stage names used in [StageError].
const (
	StageTranscription = "transcription"
	StageRetrieval     = "retrieval"
	StageGeneration    = "generation"
	StageSynthesis     = "synthesis"
)

// IngestionError reports malformed request audio. Client fault, mapped to 400.
type IngestionError struct {
	Err error
}

func (e *IngestionError) Error() string {
	return "ingestion: " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error { return e.Err }

// StageError reports a terminal failure of one pipeline stage. Mapped to 500
// with Reason in the response body.
type StageError struct {
	// Stage is one of the Stage* constants.
	Stage string

	// Reason is the stable machine-readable failure reason, e.g.
	// "transcription_failed".
	Reason string

	// Err is the underlying cause, may be nil.
	Err error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s stage: %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error { return e.Err }
