// Package piper adapts the piper neural synthesizer to the speech.Engine
// contract. Voices are .onnx model files in a models directory; the
// directory is watched, so models installed while the portal is running show
// up through the catalog's voices-changed notification. Synthesis runs one
// process per utterance and the raw PCM output is played through an
// audio.Player.
package piper

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/language"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/audio"
	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
)

// DefaultSampleRate matches the medium-quality piper voices.
const DefaultSampleRate = 22050

const modelExt = ".onnx"

// Config configures the piper engine.
type Config struct {
	// Binary is the piper executable, "piper" on PATH by default.
	Binary string

	// ModelsDir holds the voice model files.
	ModelsDir string

	// SampleRate of the models; defaults to DefaultSampleRate.
	SampleRate int
}

// Engine drives piper. It tracks at most one active utterance.
type Engine struct {
	binary     string
	modelsDir  string
	sampleRate int
	player     audio.Player
	available  bool

	notify  chan struct{}
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu       sync.Mutex
	closed   bool
	gen      uint64
	cmd      *exec.Cmd
	pending  bool
	speaking bool
}

// New creates a piper engine playing through the given player. A missing
// binary or models directory leaves the engine unavailable rather than
// failing; an empty-but-watchable models directory is fine, voices appear
// once models are installed.
func New(cfg Config, player audio.Player) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	e := &Engine{
		modelsDir:  cfg.ModelsDir,
		sampleRate: cfg.SampleRate,
		player:     player,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		log.Debug("piper binary not found", "binary", cfg.Binary)
		return e
	}
	if _, err := os.Stat(cfg.ModelsDir); err != nil {
		log.Debug("piper models directory missing", "dir", cfg.ModelsDir)
		return e
	}

	e.binary = path
	e.available = true
	e.startWatcher()
	return e
}

// startWatcher wires the models directory into the voices-changed channel.
// Watch failures only cost asynchronous discovery; the engine still works
// with whatever models were present at startup.
func (e *Engine) startWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("watching piper models disabled", "error", err)
		return
	}
	if err := watcher.Add(e.modelsDir); err != nil {
		log.Warn("watching piper models disabled", "dir", e.modelsDir, "error", err)
		_ = watcher.Close()
		return
	}

	e.watcher = watcher
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if strings.EqualFold(filepath.Ext(ev.Name), modelExt) {
					select {
					case e.notify <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("piper models watcher", "error", err)
			case <-e.done:
				return
			}
		}
	}()
}

// Available implements speech.Engine.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available && !e.closed
}

// Voices implements speech.Engine by scanning the models directory. The
// list is sorted by file name so catalog order is stable.
func (e *Engine) Voices() []speech.Voice {
	e.mu.Lock()
	if !e.available || e.closed {
		e.mu.Unlock()
		return nil
	}
	dir := e.modelsDir
	e.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("scanning piper models failed", "dir", dir, "error", err)
		return nil
	}

	var voices []speech.Voice
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), modelExt) {
			continue
		}
		voices = append(voices, VoiceFromModel(filepath.Join(dir, entry.Name())))
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	return voices
}

// VoiceFromModel derives a Voice from a model path. Piper models are named
// like "pt_BR-faber-medium.onnx": the language tag comes first, underscore
// separated.
func VoiceFromModel(path string) speech.Voice {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	lang := base
	if i := strings.Index(base, "-"); i > 0 {
		lang = base[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	if t, err := language.Parse(lang); err == nil {
		lang = t.String()
	}

	return speech.Voice{ID: path, Name: base, Language: lang}
}

// Speak implements speech.Engine. Synthesis and playback run in the
// background; the new utterance replaces any active one.
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

	model := e.resolveModelLocked(u.Voice)
	if model == "" {
		go func() {
			if u.Failed != nil {
				u.Failed(errors.New("no piper voice models installed"))
			}
		}()
		return nil
	}

	e.pending = true
	go e.run(id, u, model)
	return nil
}

// resolveModelLocked maps the utterance voice to a model path. With no
// explicit voice the engine default is the first model in catalog order.
func (e *Engine) resolveModelLocked(v *speech.Voice) string {
	if v != nil && v.ID != "" {
		return v.ID
	}

	e.mu.Unlock()
	voices := e.Voices()
	e.mu.Lock()

	if len(voices) == 0 {
		return ""
	}
	return voices[0].ID
}

// run synthesizes and plays one utterance.
func (e *Engine) run(id uint64, u speech.Utterance, model string) {
	// Piper's length scale is the inverse of the speaking rate. Pitch is
	// baked into the model and cannot be adjusted here.
	args := []string{
		"--model", model,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1.0/u.Rate),
	}

	cmd := exec.Command(e.binary, args...)
	cmd.Stdin = strings.NewReader(u.Text)

	e.mu.Lock()
	if id != e.gen {
		e.mu.Unlock()
		return
	}
	e.cmd = cmd
	e.mu.Unlock()

	pcm, err := cmd.Output()

	e.mu.Lock()
	if id != e.gen {
		e.mu.Unlock()
		return
	}
	e.cmd = nil
	if err != nil {
		e.pending = false
		e.mu.Unlock()
		if u.Failed != nil {
			u.Failed(fmt.Errorf("piper synthesis: %w", err))
		}
		return
	}
	if len(pcm) == 0 {
		e.pending = false
		e.mu.Unlock()
		if u.Failed != nil {
			u.Failed(errors.New("piper produced no audio"))
		}
		return
	}
	e.mu.Unlock()

	playErr := e.player.Play(ScaleVolume(pcm, u.Volume), func() { e.playbackDone(id, u) })

	e.mu.Lock()
	if id != e.gen {
		e.mu.Unlock()
		return
	}
	e.pending = false
	if playErr != nil {
		e.mu.Unlock()
		if u.Failed != nil {
			u.Failed(fmt.Errorf("audio playback: %w", playErr))
		}
		return
	}
	e.speaking = true
	e.mu.Unlock()

	if u.Started != nil {
		u.Started()
	}
}

// playbackDone delivers the end signal when playback finishes naturally.
func (e *Engine) playbackDone(id uint64, u speech.Utterance) {
	e.mu.Lock()
	if id != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.speaking = false
	e.mu.Unlock()

	if u.Ended != nil {
		u.Ended()
	}
}

// ScaleVolume applies a volume multiplier to 16-bit little-endian PCM.
// A multiplier of 1.0 returns the input unchanged; samples clip at the
// int16 range.
func ScaleVolume(pcm []byte, volume float64) []byte {
	if volume == 1.0 || len(pcm) < 2 {
		return pcm
	}

	out := make([]byte, len(pcm))
	copy(out, pcm)
	for i := 0; i+1 < len(out); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(out[i:])))
		scaled := sample * volume
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(scaled)))
	}
	return out
}

// Cancel implements speech.Engine.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.cancelActiveLocked()
	e.mu.Unlock()
}

func (e *Engine) cancelActiveLocked() {
	e.gen++
	e.pending = false
	e.speaking = false
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	e.cmd = nil
	if e.player != nil {
		e.player.Stop()
	}
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

// Resume implements speech.Engine. Playback never pauses internally.
func (e *Engine) Resume() {}

// Notifications implements speech.Engine.
func (e *Engine) Notifications() <-chan struct{} {
	return e.notify
}

// Close implements speech.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.cancelActiveLocked()
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	if e.watcher != nil {
		_ = e.watcher.Close()
	}
	close(e.notify)
	return nil
}

var _ speech.Engine = (*Engine)(nil)
