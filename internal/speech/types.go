package speech

// Voice describes one synthesis persona offered by the platform engine.
// The catalog owns Voice values; the selector and coordinator only read them.
type Voice struct {
	// ID is the engine's opaque handle for this voice. For subprocess
	// engines this is typically a voice identifier or a model file path.
	ID string

	// Name is the human-readable display name.
	Name string

	// Language is the BCP-47 tag reported by the engine, e.g. "pt-BR".
	Language string
}

// Options control prosody and lifecycle notification for a single readout.
// Rate, pitch and volume are positive multipliers around 1.0; zero values
// mean "use the default". Callbacks are optional and may be nil.
type Options struct {
	// Rate is the speaking rate multiplier (1.0 = normal).
	Rate float64

	// Pitch is the voice pitch multiplier (1.0 = normal).
	Pitch float64

	// Volume is the output volume multiplier (1.0 = normal).
	Volume float64

	// OnStart fires once when the engine actually begins vocalizing.
	OnStart func()

	// OnEnd fires once when the utterance completes naturally. It never
	// fires for superseded or cancelled requests.
	OnEnd func()

	// OnError fires instead of OnEnd when the engine reports a failure
	// mid-utterance. Failed utterances are not retried.
	OnError func(error)
}

// Utterance is one request handed to a platform engine. The coordinator
// fills the lifecycle callbacks; engines must invoke them exactly once per
// accepted request, Started first, then either Ended or Failed.
type Utterance struct {
	// Text is the text to vocalize, already trimmed and non-empty.
	Text string

	// Voice is the resolved voice, or nil to use the engine's default.
	Voice *Voice

	// Rate, Pitch and Volume are clamped prosody multipliers.
	Rate   float64
	Pitch  float64
	Volume float64

	// Started signals that the engine began vocalizing.
	Started func()

	// Ended signals natural completion.
	Ended func()

	// Failed signals an engine-reported error.
	Failed func(error)
}

const (
	// minProsody and maxProsody bound the rate/pitch/volume multipliers.
	// Values outside the range are clamped, not rejected.
	minProsody = 0.1
	maxProsody = 4.0
)

// clampProsody normalizes a prosody multiplier: zero becomes the 1.0
// default, everything else is clamped into [minProsody, maxProsody].
func clampProsody(v float64) float64 {
	if v == 0 {
		return 1.0
	}
	if v < minProsody {
		return minProsody
	}
	if v > maxProsody {
		return maxProsody
	}
	return v
}
