package fetch

// Outcome is how a Fetch call settled.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeError     Outcome = "error"
	// OutcomeAborted is a cancelled request resolved with an empty response
	// in abort compatibility mode.
	OutcomeAborted Outcome = "aborted"
)

// Recorder observes the fetcher.
type Recorder interface {
	RecordFetch(method, host string, outcome Outcome)
	RecordCacheLookup(hit bool)
	RecordAgentDisposal()
}

type noopRecorder struct{}

func (noopRecorder) RecordFetch(string, string, Outcome) {}
func (noopRecorder) RecordCacheLookup(bool)              {}
func (noopRecorder) RecordAgentDisposal()                {}
