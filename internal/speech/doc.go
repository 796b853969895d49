// Package speech implements the accessibility read-aloud core for the
// Participa DF portal: a voice catalog, a deterministic voice selector and a
// coordinator that owns the single active utterance of a platform speech
// engine.
//
// The coordinator compensates for engine nondeterminism that is observable in
// the wild: voice lists that populate asynchronously after startup, engines
// that silently drop an utterance when cancel and speak happen in the same
// tick, and requests that are accepted but never started. Requests are never
// queued; the newest Speak always supersedes whatever was in flight.
package speech
