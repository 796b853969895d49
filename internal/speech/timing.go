package speech

import "time"

// Empirically tuned delays that compensate for platform engine races. The
// magnitudes were carried over from the portal's production tuning; neither
// has been shown to be load-bearing, so both stay configurable.
const (
	// DefaultPreSpeakDelay is how long the coordinator waits between
	// cancelling the previous utterance and submitting the next one.
	// Submitting in the same tick as a cancel makes some engines silently
	// ignore the new utterance.
	DefaultPreSpeakDelay = 50 * time.Millisecond

	// DefaultWatchdogDelay is how long the coordinator waits before
	// checking that a submitted request produced any observable effect.
	// Requests the engine accepted but never started are re-issued once.
	DefaultWatchdogDelay = 500 * time.Millisecond
)

// Timing holds the coordinator's two scheduled delays. The zero value means
// "use the defaults".
type Timing struct {
	// PreSpeak delays the engine speak call after a cancel.
	PreSpeak time.Duration

	// Watchdog delays the dropped-request check. It should be comfortably
	// longer than PreSpeak.
	Watchdog time.Duration
}

// withDefaults fills unset delays with the default constants.
func (t Timing) withDefaults() Timing {
	if t.PreSpeak <= 0 {
		t.PreSpeak = DefaultPreSpeakDelay
	}
	if t.Watchdog <= 0 {
		t.Watchdog = DefaultWatchdogDelay
	}
	return t
}
