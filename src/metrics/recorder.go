package metrics

import "time"

// ChunkResult enumerates what the ingest agent did with a log chunk.
type ChunkResult string

const (
	ChunkApplied   ChunkResult = "applied"
	ChunkBuffered  ChunkResult = "buffered"
	ChunkDuplicate ChunkResult = "duplicate"
	ChunkInvalid   ChunkResult = "invalid"
	// ChunkDropped marks a chunk whose run was discarded for buffering too many chunks.
	ChunkDropped ChunkResult = "dropped"
)

// Recorder defines observability hooks for translation and aggregation.
type Recorder interface {
	IncLines(n int)
	IncEvent(kind string)
	IncBuildOutcome(outcome string) // outcome: succeeded|failed
	IncActionsCompleted()
	IncDiagnostic(severity string)
	IncChunk(result ChunkResult)
	ObserveRunDuration(d time.Duration)
	SetActiveRuns(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncLines(int)                     {}
func (NoopRecorder) IncEvent(string)                  {}
func (NoopRecorder) IncBuildOutcome(string)           {}
func (NoopRecorder) IncActionsCompleted()             {}
func (NoopRecorder) IncDiagnostic(string)             {}
func (NoopRecorder) IncChunk(ChunkResult)             {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) SetActiveRuns(int)                {}
