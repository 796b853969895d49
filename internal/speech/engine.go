package speech

// Engine is the platform speech capability the coordinator drives.
// Implementations include the espeak-ng and piper subprocess adapters and the
// scriptable mock used in tests.
//
// The engine is process-wide shared state: exactly one coordinator may own a
// given engine instance. Engines track at most one utterance at a time; a
// Speak while another utterance is active replaces it.
type Engine interface {
	// Available reports whether the platform actually provides this
	// capability (binary installed, device present). Checked once at
	// Reader construction.
	Available() bool

	// Voices returns the voices the engine currently exposes. The list
	// may legitimately be empty before asynchronous discovery completes.
	Voices() []Voice

	// Speak submits an utterance. The engine delivers lifecycle signals
	// through the utterance callbacks, always asynchronously, never from
	// inside Speak or Cancel. A returned error means the request could not
	// be submitted at all; mid-utterance failures arrive via Failed
	// instead.
	Speak(u Utterance) error

	// Cancel stops the active utterance, if any. Idempotent. Cancelled
	// utterances produce no further lifecycle signals.
	Cancel()

	// Speaking reports whether the engine is currently vocalizing.
	Speaking() bool

	// Pending reports whether the engine has accepted a request that has
	// not started vocalizing yet.
	Pending() bool

	// Resume unsticks engines that can become internally paused. A no-op
	// for engines without a paused state.
	Resume()

	// Notifications returns a channel that receives a signal whenever the
	// engine's voice list may have changed. The channel is closed by
	// Close.
	Notifications() <-chan struct{}

	// Close releases engine resources. The coordinator does not call
	// Close; ownership stays with whoever constructed the engine.
	Close() error
}
