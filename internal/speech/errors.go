package speech

import "errors"

// Sentinel errors used by engines and the CLI. Expected conditions
// (no engine, no matching voice) never cross the Reader surface as errors;
// these exist for engine constructors and adapters.
var (
	// ErrEngineUnavailable indicates the platform offers no usable speech
	// capability (missing binary, no audio device).
	ErrEngineUnavailable = errors.New("speech engine unavailable")

	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("speech engine closed")

	// ErrEngineBusy indicates the engine rejected a request it should have
	// superseded. Adapters are expected to replace, not reject.
	ErrEngineBusy = errors.New("speech engine busy")

	// ErrEmptyUtterance indicates an utterance with no speakable text
	// reached an engine.
	ErrEmptyUtterance = errors.New("utterance text is empty")
)
