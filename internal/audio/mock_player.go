package audio

import (
	"errors"
	"sync"
	"time"
)

// MockPlayer implements Player without touching an audio device. Playback
// time is simulated from the PCM length, scaled by a configurable factor so
// tests stay fast.
type MockPlayer struct {
	sampleRate int
	timeScale  float64

	mu      sync.Mutex
	closed  bool
	gen     uint64
	playing bool
	timer   *time.Timer

	playCount int
	stopCount int
	lastPCM   []byte
	playErr   error
}

// NewMockPlayer creates a mock player. timeScale compresses simulated
// playback time; 0.01 plays a one second stream in ten milliseconds.
func NewMockPlayer(sampleRate int, timeScale float64) *MockPlayer {
	if timeScale <= 0 {
		timeScale = 1.0
	}
	return &MockPlayer{sampleRate: sampleRate, timeScale: timeScale}
}

// FailNext makes the next Play return err.
func (p *MockPlayer) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playErr = err
}

// Play implements Player.
func (p *MockPlayer) Play(pcm []byte, onDone func()) error {
	if len(pcm) == 0 {
		return errors.New("empty pcm stream")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("player closed")
	}
	if p.playErr != nil {
		err := p.playErr
		p.playErr = nil
		return err
	}

	p.stopLocked()
	p.gen++
	id := p.gen

	p.playing = true
	p.playCount++
	p.lastPCM = append([]byte(nil), pcm...)

	simulated := time.Duration(float64(Duration(pcm, p.sampleRate)) * p.timeScale)
	p.timer = time.AfterFunc(simulated, func() {
		p.mu.Lock()
		if id != p.gen || p.closed {
			p.mu.Unlock()
			return
		}
		p.playing = false
		p.mu.Unlock()

		if onDone != nil {
			onDone()
		}
	})
	return nil
}

// Stop implements Player.
func (p *MockPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCount++
	p.stopLocked()
}

func (p *MockPlayer) stopLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.playing = false
}

// Playing implements Player.
func (p *MockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Close implements Player.
func (p *MockPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}

// PlayCount returns how many streams were accepted.
func (p *MockPlayer) PlayCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playCount
}

// StopCount returns how many times Stop was called.
func (p *MockPlayer) StopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopCount
}

// LastPCM returns a copy of the most recently played stream.
func (p *MockPlayer) LastPCM() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.lastPCM...)
}

var _ Player = (*MockPlayer)(nil)
