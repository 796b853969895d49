package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays 16-bit little-endian mono PCM and reports completion through
// a callback. At most one stream is active; Play replaces the current one.
type Player interface {
	// Play starts playback and invokes onDone exactly once if the stream
	// completes naturally. Streams replaced by a later Play or by Stop do
	// not invoke their onDone.
	Play(pcm []byte, onDone func()) error

	// Stop halts the current stream, if any. Idempotent.
	Stop()

	// Playing reports whether a stream is currently audible.
	Playing() bool

	// Close stops playback and releases the audio device.
	Close() error
}

// Duration returns how long the given mono 16-bit PCM runs at sampleRate.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// OtoPlayer implements Player on the oto audio context.
type OtoPlayer struct {
	ctx        *oto.Context
	sampleRate int

	mu      sync.Mutex
	closed  bool
	gen     uint64
	player  *oto.Player
	stream  []byte // kept alive for the duration of playback
	playing bool
}

// NewOtoPlayer opens the audio device for mono 16-bit playback at the given
// sample rate. The device is a process-wide resource; create one player and
// share it.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio context: %w", err)
	}
	<-ready

	return &OtoPlayer{ctx: ctx, sampleRate: sampleRate}, nil
}

// Play implements Player.
func (p *OtoPlayer) Play(pcm []byte, onDone func()) error {
	if len(pcm) == 0 {
		return errors.New("empty pcm stream")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("player closed")
	}
	p.stopLocked()

	p.gen++
	id := p.gen

	// The backing slice must outlive the oto player or playback degrades
	// to static once the GC runs.
	p.stream = append([]byte(nil), pcm...)
	player := p.ctx.NewPlayer(bytes.NewReader(p.stream))
	p.player = player
	p.playing = true
	p.mu.Unlock()

	player.Play()
	go p.watch(id, player, Duration(pcm, p.sampleRate), onDone)
	return nil
}

// watch polls the oto player until the stream drains, then fires onDone if
// this stream is still the current one.
func (p *OtoPlayer) watch(id uint64, player *oto.Player, duration time.Duration, onDone func()) {
	// Grace on top of the nominal duration covers device buffering.
	deadline := time.Now().Add(duration + time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if !player.IsPlaying() || time.Now().After(deadline) {
			break
		}
	}

	p.mu.Lock()
	if id != p.gen {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.player = nil
	p.stream = nil
	p.mu.Unlock()

	_ = player.Close()
	if onDone != nil {
		onDone()
	}
}

// Stop implements Player.
func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *OtoPlayer) stopLocked() {
	p.gen++
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.stream = nil
	p.playing = false
}

// Playing implements Player.
func (p *OtoPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Close implements Player.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	// oto contexts cannot be closed in v3; dropping the reference is the
	// documented teardown.
	p.ctx = nil
	return nil
}

var _ Player = (*OtoPlayer)(nil)
