package pipeline

// State is a stage of the pipeline state machine.
type State string

const (
	StateIdle           State = "idle"
	StateTestingNetwork State = "testing_network"
	StateLoadingRuntime State = "loading_runtime"
	StateTranscoding    State = "transcoding"
	StateExtracting     State = "extracting"
	StateTranscribing   State = "transcribing"
	StateSummarizing    State = "summarizing"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Running reports whether s is an active stage.
func (s State) Running() bool {
	switch s {
	case StateTestingNetwork, StateLoadingRuntime, StateTranscoding, StateExtracting, StateTranscribing, StateSummarizing:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed state machine edges.
func isValidTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateSummarizing
	}
	switch from {
	case StateIdle, StateFailed:
		return to == StateTestingNetwork || to == StateIdle
	case StateTestingNetwork:
		return to == StateLoadingRuntime || to == StateExtracting || to == StateTranscribing
	case StateLoadingRuntime:
		return to == StateTranscoding
	case StateTranscoding, StateExtracting:
		return to == StateTranscribing
	case StateTranscribing:
		return to == StateDone
	case StateSummarizing:
		return to == StateDone
	case StateDone:
		return to == StateSummarizing || to == StateTestingNetwork || to == StateIdle
	default:
		return false
	}
}
