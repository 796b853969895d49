package speech

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Reader is the capability-gated surface the portal UI consumes. When the
// platform provides no speech engine at all, every method is a safe no-op:
// nothing panics, no callback fires, no error is returned.
type Reader struct {
	engine    Engine
	catalog   *Catalog
	coord     *Coordinator
	supported bool
}

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	// Language is the default BCP-47 tag for automatic voice selection.
	// Defaults to "pt-BR", the portal's audience.
	Language string

	// Timing overrides the coordinator's race-compensation delays. The
	// zero value uses the defaults.
	Timing Timing
}

// DefaultLanguage is the portal's default readout language.
const DefaultLanguage = "pt-BR"

// NewReader builds the public surface over an engine. The capability flag is
// computed exactly once here: a nil or unavailable engine produces a Reader
// whose operations all succeed silently without touching the platform.
func NewReader(engine Engine, cfg ReaderConfig) *Reader {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}

	if engine == nil || !engine.Available() {
		log.Debug("speech capability unavailable, readout disabled")
		return &Reader{supported: false}
	}

	catalog := NewCatalog(engine)
	return &Reader{
		engine:    engine,
		catalog:   catalog,
		coord:     NewCoordinator(engine, catalog, cfg.Language, cfg.Timing),
		supported: true,
	}
}

// Supported reports whether the platform provides a speech engine. Computed
// once at construction.
func (r *Reader) Supported() bool {
	return r.supported
}

// Speaking reports whether a readout is currently being vocalized.
func (r *Reader) Speaking() bool {
	if !r.supported {
		return false
	}
	return r.coord.Speaking()
}

// State returns the lifecycle state of the current readout.
func (r *Reader) State() State {
	if !r.supported {
		return StateIdle
	}
	return r.coord.State()
}

// Voices returns the current catalog snapshot in engine order.
func (r *Reader) Voices() []Voice {
	if !r.supported {
		return nil
	}
	return r.catalog.Voices()
}

// RefreshVoices forces a catalog refresh.
func (r *Reader) RefreshVoices() {
	if !r.supported {
		return
	}
	r.catalog.Refresh()
}

// CurrentVoice returns the voice the next utterance would use, or false when
// the engine's own default would be used.
func (r *Reader) CurrentVoice() (Voice, bool) {
	if !r.supported {
		return Voice{}, false
	}
	if pinned := r.coord.PinnedVoice(); pinned != nil {
		return *pinned, true
	}
	return SelectVoice(r.catalog.Voices(), r.coord.Language())
}

// SetVoiceByName pins the catalog voice with the given display name for
// subsequent readouts. Unknown names silently restore automatic selection.
func (r *Reader) SetVoiceByName(name string) {
	if !r.supported {
		return
	}
	for _, v := range r.catalog.Voices() {
		if strings.EqualFold(v.Name, name) {
			r.coord.SetPinnedVoice(&v)
			return
		}
	}
	log.Debug("voice not found, using automatic selection", "name", name)
	r.coord.SetPinnedVoice(nil)
}

// Speak reads the given text aloud, superseding any readout in flight.
func (r *Reader) Speak(text string, opts Options) {
	if !r.supported {
		return
	}
	r.coord.Speak(text, opts)
}

// Cancel stops the current readout. Idempotent.
func (r *Reader) Cancel() {
	if !r.supported {
		return
	}
	r.coord.Cancel()
}

// Resume unsticks an engine that became internally paused.
func (r *Reader) Resume() {
	if !r.supported {
		return
	}
	r.engine.Resume()
}

// Close cancels any readout and releases the catalog's voices-changed
// subscription. The engine itself stays with its owner.
func (r *Reader) Close() {
	if !r.supported {
		return
	}
	r.coord.Cancel()
	r.catalog.Close()
}
