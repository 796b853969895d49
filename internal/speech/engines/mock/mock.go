// Package mock provides a scriptable in-process speech engine for tests and
// for running the readout CLI on machines without a synthesizer. It simulates
// the platform behaviors the coordinator has to survive: voices that appear
// after startup, silently dropped requests and mid-utterance failures.
package mock

import (
	"sync"
	"time"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
)

// Engine implements speech.Engine without producing sound.
type Engine struct {
	mu     sync.Mutex
	closed bool

	available  bool
	voices     []speech.Voice
	notify     chan struct{}
	startDelay time.Duration
	duration   time.Duration

	dropNext  int
	failNext  error
	abortNext error

	gen      uint64
	pending  bool
	speaking bool
	paused   bool
	startT   *time.Timer
	endT     *time.Timer

	speakCalls  int
	cancelCalls int
	resumeCalls int
	spoken      []speech.Utterance
}

// Option configures a mock engine.
type Option func(*Engine)

// WithVoices sets the initial voice list.
func WithVoices(voices ...speech.Voice) Option {
	return func(e *Engine) { e.voices = voices }
}

// WithTimings overrides the simulated start delay and utterance duration.
func WithTimings(startDelay, duration time.Duration) Option {
	return func(e *Engine) {
		e.startDelay = startDelay
		e.duration = duration
	}
}

// Unavailable makes the engine report no speech capability.
func Unavailable() Option {
	return func(e *Engine) { e.available = false }
}

// New creates a mock engine. By default it is available, has no voices and
// vocalizes quickly enough for tests.
func New(opts ...Option) *Engine {
	e := &Engine{
		available:  true,
		notify:     make(chan struct{}, 1),
		startDelay: 5 * time.Millisecond,
		duration:   20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available implements speech.Engine.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available && !e.closed
}

// Voices implements speech.Engine.
func (e *Engine) Voices() []speech.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]speech.Voice, len(e.voices))
	copy(out, e.voices)
	return out
}

// SetVoices replaces the voice list and fires a voices-changed notification,
// simulating asynchronous discovery.
func (e *Engine) SetVoices(voices ...speech.Voice) {
	e.mu.Lock()
	e.voices = voices
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return
	}
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Speak implements speech.Engine. The utterance replaces whatever was
// active. Lifecycle signals fire from timer goroutines, never synchronously.
func (e *Engine) Speak(u speech.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return speech.ErrEngineClosed
	}
	if u.Text == "" {
		return speech.ErrEmptyUtterance
	}

	e.speakCalls++
	e.spoken = append(e.spoken, u)
	e.cancelActiveLocked()

	e.gen++
	id := e.gen

	if e.dropNext > 0 {
		// Accepted but never started, with no pending trace: exactly the
		// platform behavior the watchdog exists for.
		e.dropNext--
		return nil
	}

	if abortErr := e.abortNext; abortErr != nil {
		// Failure before any start signal, like a synthesizer that dies
		// on launch.
		e.abortNext = nil
		e.pending = true
		e.startT = time.AfterFunc(e.startDelay, func() { e.deliverAbort(id, u, abortErr) })
		return nil
	}

	failErr := e.failNext
	e.failNext = nil

	e.pending = true
	e.startT = time.AfterFunc(e.startDelay, func() { e.deliverStart(id, u, failErr) })
	return nil
}

// deliverAbort fires the failure signal without a preceding start signal.
func (e *Engine) deliverAbort(id uint64, u speech.Utterance, abortErr error) {
	e.mu.Lock()
	if id != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.mu.Unlock()

	if u.Failed != nil {
		u.Failed(abortErr)
	}
}

// deliverStart fires the start signal and schedules the outcome.
func (e *Engine) deliverStart(id uint64, u speech.Utterance, failErr error) {
	e.mu.Lock()
	if id != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.speaking = true
	e.mu.Unlock()

	if u.Started != nil {
		u.Started()
	}

	e.mu.Lock()
	if id != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.endT = time.AfterFunc(e.duration, func() { e.deliverOutcome(id, u, failErr) })
	e.mu.Unlock()
}

// deliverOutcome fires either the end or the failure signal.
func (e *Engine) deliverOutcome(id uint64, u speech.Utterance, failErr error) {
	e.mu.Lock()
	if id != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.speaking = false
	e.mu.Unlock()

	if failErr != nil {
		if u.Failed != nil {
			u.Failed(failErr)
		}
		return
	}
	if u.Ended != nil {
		u.Ended()
	}
}

// Cancel implements speech.Engine. Cancelled utterances emit no further
// signals.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelCalls++
	e.cancelActiveLocked()
}

func (e *Engine) cancelActiveLocked() {
	if e.startT != nil {
		e.startT.Stop()
		e.startT = nil
	}
	if e.endT != nil {
		e.endT.Stop()
		e.endT = nil
	}
	e.gen++
	e.pending = false
	e.speaking = false
}

// Speaking implements speech.Engine.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speaking
}

// Pending implements speech.Engine.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Resume implements speech.Engine.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumeCalls++
	e.paused = false
}

// Notifications implements speech.Engine.
func (e *Engine) Notifications() <-chan struct{} {
	return e.notify
}

// Close implements speech.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.cancelActiveLocked()
	e.closed = true
	close(e.notify)
	return nil
}

// Test scripting helpers.

// DropNext makes the next n Speak calls silent drops: accepted, never
// started, no pending trace.
func (e *Engine) DropNext(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropNext = n
}

// FailNext makes the next utterance start and then fail with err.
func (e *Engine) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = err
}

// AbortNext makes the next utterance fail with err before any start signal.
func (e *Engine) AbortNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abortNext = err
}

// SpeakCalls returns how many times Speak was invoked.
func (e *Engine) SpeakCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speakCalls
}

// CancelCalls returns how many times Cancel was invoked.
func (e *Engine) CancelCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelCalls
}

// ResumeCalls returns how many times Resume was invoked.
func (e *Engine) ResumeCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumeCalls
}

// SpokenTexts returns the texts of every utterance submitted so far, in
// submission order, including dropped and superseded ones.
func (e *Engine) SpokenTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	texts := make([]string, len(e.spoken))
	for i, u := range e.spoken {
		texts[i] = u.Text
	}
	return texts
}

// LastUtterance returns the most recently submitted utterance.
func (e *Engine) LastUtterance() (speech.Utterance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.spoken) == 0 {
		return speech.Utterance{}, false
	}
	return e.spoken[len(e.spoken)-1], true
}

var _ speech.Engine = (*Engine)(nil)
