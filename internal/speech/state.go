package speech

// State represents the lifecycle state of the current readout request.
// It is scoped to the current request id only; a new Speak resets it.
type State int

const (
	// StateIdle indicates no readout is active.
	StateIdle State = iota
	// StateSpeaking indicates the engine is vocalizing the current request.
	StateSpeaking
	// StateCancelled indicates the current request was cancelled. The
	// coordinator passes through this state on its way back to idle.
	StateCancelled
	// StateErrored indicates the engine reported a failure for the current
	// request. Like cancelled, it resolves back to idle.
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}
