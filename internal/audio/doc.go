// Package audio provides minimal PCM playback for subprocess synthesizers
// that emit raw audio instead of speaking through the system mixer
// themselves. The real player sits on oto; a mock with identical timing
// semantics backs the tests.
package audio
