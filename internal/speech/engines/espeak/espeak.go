// Package espeak adapts the espeak-ng command line synthesizer to the
// speech.Engine contract. Each utterance runs in a fresh process; cancel
// kills the process, so no partial audio lingers.
package espeak

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
)

// candidateBinaries are probed in order when no binary is configured.
var candidateBinaries = []string{"espeak-ng", "espeak"}

// Config configures the espeak engine.
type Config struct {
	// Binary is the synthesizer executable. Empty probes espeak-ng, then
	// espeak, on PATH.
	Binary string
}

// Engine drives espeak-ng. It tracks at most one active process.
type Engine struct {
	binary    string
	available bool
	notify    chan struct{}

	mu       sync.Mutex
	closed   bool
	gen      uint64
	cmd      *exec.Cmd
	pending  bool
	speaking bool
}

// New creates an espeak engine. A missing binary is not an error: the engine
// is constructed unavailable and the Reader degrades to silent no-ops.
func New(cfg Config) *Engine {
	e := &Engine{notify: make(chan struct{})}

	candidates := candidateBinaries
	if cfg.Binary != "" {
		candidates = []string{cfg.Binary}
	}
	for _, bin := range candidates {
		if path, err := exec.LookPath(bin); err == nil {
			e.binary = path
			e.available = true
			break
		}
	}
	if !e.available {
		log.Debug("espeak binary not found", "candidates", strings.Join(candidates, ", "))
	}
	return e
}

// Available implements speech.Engine.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available && !e.closed
}

// Voices implements speech.Engine by running `espeak-ng --voices`. Failures
// yield an empty list; an engine with zero voices is valid.
func (e *Engine) Voices() []speech.Voice {
	e.mu.Lock()
	if !e.available || e.closed {
		e.mu.Unlock()
		return nil
	}
	binary := e.binary
	e.mu.Unlock()

	out, err := exec.Command(binary, "--voices").Output()
	if err != nil {
		log.Warn("listing espeak voices failed", "error", err)
		return nil
	}
	return ParseVoices(string(out))
}

// ParseVoices parses `espeak-ng --voices` output. Lines it cannot make sense
// of are skipped.
func ParseVoices(out string) []speech.Voice {
	var voices []speech.Voice
	for i, line := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			// Header row.
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		// Columns: Pty Language Age/Gender VoiceName File. The voice name
		// may contain spaces; the file identifier is the last field.
		voices = append(voices, speech.Voice{
			ID:       fields[len(fields)-1],
			Name:     strings.Join(fields[3:len(fields)-1], " "),
			Language: canonicalTag(fields[1]),
		})
	}
	return voices
}

// canonicalTag normalizes espeak's lowercase tags ("pt-br") to BCP-47 form.
func canonicalTag(tag string) string {
	if t, err := language.Parse(tag); err == nil {
		return t.String()
	}
	return tag
}

// Speak implements speech.Engine. The new utterance replaces any active one.
func (e *Engine) Speak(u speech.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return speech.ErrEngineClosed
	}
	if !e.available {
		return speech.ErrEngineUnavailable
	}
	if u.Text == "" {
		return speech.ErrEmptyUtterance
	}

	e.cancelActiveLocked()
	e.gen++
	id := e.gen

	args := prosodyArgs(u)
	if u.Voice != nil {
		args = append(args, "-v", u.Voice.ID)
	}
	args = append(args, "--", u.Text)

	cmd := exec.Command(e.binary, args...)
	e.cmd = cmd
	e.pending = true

	go e.run(id, cmd, u)
	return nil
}

// prosodyArgs maps the utterance multipliers onto espeak's native ranges:
// words per minute around 175, pitch 0..99 around 50, amplitude 0..200
// around 100.
func prosodyArgs(u speech.Utterance) []string {
	rate := int(175 * u.Rate)
	pitch := clampInt(int(50*u.Pitch), 0, 99)
	amplitude := clampInt(int(100*u.Volume), 0, 200)
	return []string{
		"-s", fmt.Sprintf("%d", rate),
		"-p", fmt.Sprintf("%d", pitch),
		"-a", fmt.Sprintf("%d", amplitude),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// run starts the process and delivers lifecycle signals. Signals for
// superseded generations are suppressed here so a cancelled process's exit
// never reaches the coordinator.
func (e *Engine) run(id uint64, cmd *exec.Cmd, u speech.Utterance) {
	if err := cmd.Start(); err != nil {
		e.mu.Lock()
		stale := id != e.gen
		e.pending = false
		e.mu.Unlock()

		if !stale && u.Failed != nil {
			u.Failed(fmt.Errorf("starting %s: %w", e.binary, err))
		}
		return
	}

	e.mu.Lock()
	if id != e.gen {
		// Superseded between submit and start.
		e.mu.Unlock()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return
	}
	e.pending = false
	e.speaking = true
	e.mu.Unlock()

	if u.Started != nil {
		u.Started()
	}

	err := cmd.Wait()

	e.mu.Lock()
	if id != e.gen {
		// Cancelled; the kill-induced exit is not an error signal.
		e.mu.Unlock()
		return
	}
	e.speaking = false
	e.cmd = nil
	e.mu.Unlock()

	if err != nil {
		if u.Failed != nil {
			u.Failed(fmt.Errorf("%s exited: %w", e.binary, err))
		}
		return
	}
	if u.Ended != nil {
		u.Ended()
	}
}

// Cancel implements speech.Engine.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActiveLocked()
}

func (e *Engine) cancelActiveLocked() {
	e.gen++
	e.pending = false
	e.speaking = false
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	e.cmd = nil
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

// Resume implements speech.Engine. espeak has no internally paused state.
func (e *Engine) Resume() {}

// Notifications implements speech.Engine. espeak's voice list is static, so
// the channel never fires; it exists so the catalog's subscription lifecycle
// is uniform across engines.
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

var _ speech.Engine = (*Engine)(nil)
