package speech

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Coordinator owns the single active utterance of a platform engine. It
// serializes requests with supersession semantics: the newest Speak always
// wins, and late timers or engine events belonging to an older request are
// suppressed by comparing their request id against the current generation.
//
// Exactly one coordinator may drive a given engine instance; the engine is
// process-wide shared state and two coordinators on it would race.
type Coordinator struct {
	engine  Engine
	catalog *Catalog

	language string
	timing   Timing

	mu       sync.Mutex
	gen      uint64
	state    State
	pinned   *Voice
	preTimer *time.Timer
	watchdog *time.Timer

	speaking atomic.Bool
}

// NewCoordinator creates a coordinator over the given engine and catalog.
// language is the default BCP-47 tag used for automatic voice selection.
func NewCoordinator(engine Engine, catalog *Catalog, language string, timing Timing) *Coordinator {
	return &Coordinator{
		engine:   engine,
		catalog:  catalog,
		language: language,
		timing:   timing.withDefaults(),
		state:    StateIdle,
	}
}

// Speak supersedes any in-flight readout with the given text. Empty text
// (after trimming) is a no-op. The engine call itself happens after the
// pre-speak delay; a watchdog re-issues it exactly once if the engine
// accepted the request but never started it.
func (c *Coordinator) Speak(text string, opts Options) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()

	// Cancel-first, even when idle. Engines garble or drop consecutive
	// requests unless the previous one is explicitly cancelled.
	c.cancelLocked()

	c.gen++
	id := c.gen

	// Voices may have only just become available; refresh opportunistically
	// without blocking this request on the engine's discovery.
	go c.catalog.Refresh()

	u := Utterance{
		Text:   text,
		Voice:  c.resolveVoiceLocked(),
		Rate:   clampProsody(opts.Rate),
		Pitch:  clampProsody(opts.Pitch),
		Volume: clampProsody(opts.Volume),
	}
	u.Started = func() { c.started(id, opts.OnStart) }
	u.Ended = func() { c.ended(id, opts.OnEnd) }
	u.Failed = func(err error) { c.failed(id, err, opts.OnError) }

	c.preTimer = time.AfterFunc(c.timing.PreSpeak, func() { c.submit(id, u, false) })
	c.watchdog = time.AfterFunc(c.timing.Watchdog, func() { c.verify(id, u) })

	log.Debug("readout scheduled", "request", id, "chars", len(text), "voice", voiceName(u.Voice))
	c.mu.Unlock()
}

// Cancel stops the engine, clears any pending timers and returns the
// coordinator to idle. Idempotent; cancelling while idle is a harmless no-op.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
}

// cancelLocked supersedes the current request. Bumping the generation is
// what silences every late timer and engine event tagged with the old id.
func (c *Coordinator) cancelLocked() {
	if c.preTimer != nil {
		c.preTimer.Stop()
		c.preTimer = nil
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}

	c.gen++
	c.state = StateIdle
	c.speaking.Store(false)

	func() {
		defer swallow("engine cancel")
		c.engine.Cancel()
	}()
}

// submit issues the engine speak call for request id, unless the request has
// been superseded in the meantime. The engine call stays inside the critical
// section so a concurrent Cancel cannot slip between the generation check and
// the speak; engines deliver their signals asynchronously, so holding the
// lock here cannot re-enter the coordinator.
func (c *Coordinator) submit(id uint64, u Utterance, retry bool) {
	defer swallow("engine speak")

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.gen {
		return
	}

	// Engines that ended up internally paused would accept the request and
	// sit on it forever.
	c.engine.Resume()

	if err := c.engine.Speak(u); err != nil {
		// Not surfaced: submission failures produce no engine error
		// signal, and the watchdog covers requests that went nowhere.
		log.Warn("engine rejected utterance", "request", id, "retry", retry, "error", err)
	}
}

// verify is the watchdog: if by now the engine reports neither speaking nor
// pending for the current request, the engine dropped it; re-issue exactly
// once. A request that also survives the retry without any signal is
// silently absorbed, because the engine gives us no error to surface.
func (c *Coordinator) verify(id uint64, u Utterance) {
	defer swallow("watchdog")

	c.mu.Lock()
	if id != c.gen {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.engine.Speaking() || c.engine.Pending() {
		return
	}

	log.Warn("engine dropped utterance, retrying once", "request", id)
	c.submit(id, u, true)
}

// started handles the engine's start signal for request id.
func (c *Coordinator) started(id uint64, cb func()) {
	c.mu.Lock()
	if id != c.gen {
		c.mu.Unlock()
		return
	}
	// The request demonstrably was not dropped; the watchdog would only
	// re-vocalize short utterances that finish before it fires.
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	c.state = StateSpeaking
	c.speaking.Store(true)
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// ended handles the engine's end signal for request id.
func (c *Coordinator) ended(id uint64, cb func()) {
	c.mu.Lock()
	if id != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.speaking.Store(false)
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// failed handles an engine-reported error for request id. The request is
// never retried; the state passes through errored and settles back to idle.
func (c *Coordinator) failed(id uint64, err error, cb func(error)) {
	c.mu.Lock()
	if id != c.gen {
		c.mu.Unlock()
		return
	}
	// Errors can arrive before any start signal (a synthesizer that dies on
	// launch). The watchdog must be disarmed here too, or it would re-issue
	// the errored request and surface the failure twice.
	if c.preTimer != nil {
		c.preTimer.Stop()
		c.preTimer = nil
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	c.state = StateErrored
	c.speaking.Store(false)
	c.mu.Unlock()

	log.Warn("engine reported utterance failure", "request", id, "error", err)
	if cb != nil {
		cb(err)
	}

	c.mu.Lock()
	if id == c.gen && c.state == StateErrored {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// resolveVoiceLocked picks the voice for the next utterance: the pinned
// voice when one is set, otherwise the selector's choice for the default
// language. nil means "let the engine use its own default".
func (c *Coordinator) resolveVoiceLocked() *Voice {
	if c.pinned != nil {
		v := *c.pinned
		return &v
	}
	if v, ok := SelectVoice(c.catalog.Voices(), c.language); ok {
		return &v
	}
	return nil
}

// SetPinnedVoice pins a specific voice for subsequent utterances. Passing
// nil restores automatic selection.
func (c *Coordinator) SetPinnedVoice(v *Voice) {
	c.mu.Lock()
	if v == nil {
		c.pinned = nil
	} else {
		pinned := *v
		c.pinned = &pinned
	}
	c.mu.Unlock()
}

// PinnedVoice returns the currently pinned voice, or nil when selection is
// automatic.
func (c *Coordinator) PinnedVoice() *Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinned == nil {
		return nil
	}
	v := *c.pinned
	return &v
}

// Speaking reports whether the current request is being vocalized.
func (c *Coordinator) Speaking() bool {
	return c.speaking.Load()
}

// State returns the lifecycle state of the current request.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Language returns the default language tag used for voice selection.
func (c *Coordinator) Language() string {
	return c.language
}

// swallow recovers panics from timer and platform calls so a misbehaving
// engine can never leave the coordinator in a dead state.
func swallow(where string) {
	if r := recover(); r != nil {
		log.Error("recovered panic in speech coordinator", "where", where, "panic", r)
	}
}

// voiceName is a log helper for optional voices.
func voiceName(v *Voice) string {
	if v == nil {
		return "engine-default"
	}
	return v.Name
}
