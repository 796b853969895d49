package audio

import (
	"errors"
	"testing"
	"time"
)

// TestDuration tests PCM duration math for mono 16-bit streams.
func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		bytes      int
		sampleRate int
		want       time.Duration
	}{
		{"one second at 22050", 44100, 22050, time.Second},
		{"half second at 22050", 22050, 22050, 500 * time.Millisecond},
		{"empty stream", 0, 22050, 0},
		{"invalid sample rate", 44100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(make([]byte, tt.bytes), tt.sampleRate); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMockPlayerPlaysToCompletion tests that onDone fires after the
// simulated duration.
func TestMockPlayerPlaysToCompletion(t *testing.T) {
	p := NewMockPlayer(22050, 0.01)
	defer p.Close() //nolint:errcheck

	done := make(chan struct{})
	// One second of audio, simulated in ten milliseconds.
	if err := p.Play(make([]byte, 44100), func() { close(done) }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !p.Playing() {
		t.Error("Playing() = false right after Play")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onDone")
	}
	if p.Playing() {
		t.Error("Playing() = true after completion")
	}
	if got := p.PlayCount(); got != 1 {
		t.Errorf("PlayCount() = %d, want 1", got)
	}
}

// TestMockPlayerStopSuppressesDone tests that stopped streams never report
// completion.
func TestMockPlayerStopSuppressesDone(t *testing.T) {
	p := NewMockPlayer(22050, 1.0)
	defer p.Close() //nolint:errcheck

	done := make(chan struct{})
	if err := p.Play(make([]byte, 44100), func() { close(done) }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	p.Stop()

	if p.Playing() {
		t.Error("Playing() = true after Stop")
	}
	select {
	case <-done:
		t.Error("stopped stream fired onDone")
	case <-time.After(50 * time.Millisecond):
	}
	if got := p.StopCount(); got != 1 {
		t.Errorf("StopCount() = %d, want 1", got)
	}
}

// TestMockPlayerReplacement tests that a second Play supersedes the first
// stream's completion callback.
func TestMockPlayerReplacement(t *testing.T) {
	p := NewMockPlayer(22050, 1.0)
	defer p.Close() //nolint:errcheck

	firstDone := make(chan struct{})
	if err := p.Play(make([]byte, 44100), func() { close(firstDone) }); err != nil {
		t.Fatalf("first Play failed: %v", err)
	}

	secondDone := make(chan struct{})
	if err := p.Play(make([]byte, 100), func() { close(secondDone) }); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}

	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the second stream")
	}
	select {
	case <-firstDone:
		t.Error("replaced stream fired onDone")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestMockPlayerFailNext tests scripted playback failure.
func TestMockPlayerFailNext(t *testing.T) {
	p := NewMockPlayer(22050, 0.01)
	defer p.Close() //nolint:errcheck

	wantErr := errors.New("device gone")
	p.FailNext(wantErr)

	if err := p.Play(make([]byte, 100), nil); !errors.Is(err, wantErr) {
		t.Errorf("Play = %v, want %v", err, wantErr)
	}
	if p.Playing() {
		t.Error("Playing() = true after a failed Play")
	}

	// The script applies once.
	if err := p.Play(make([]byte, 100), nil); err != nil {
		t.Errorf("follow-up Play failed: %v", err)
	}
}

// TestMockPlayerRejectsEmptyStream tests input validation.
func TestMockPlayerRejectsEmptyStream(t *testing.T) {
	p := NewMockPlayer(22050, 0.01)
	defer p.Close() //nolint:errcheck

	if err := p.Play(nil, nil); err == nil {
		t.Error("Play(nil) returned nil error")
	}
}

// TestMockPlayerLastPCM tests that the recorded stream is a copy.
func TestMockPlayerLastPCM(t *testing.T) {
	p := NewMockPlayer(22050, 0.01)
	defer p.Close() //nolint:errcheck

	in := []byte{1, 2, 3, 4}
	if err := p.Play(in, nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	in[0] = 99

	got := p.LastPCM()
	if got[0] != 1 {
		t.Errorf("LastPCM()[0] = %d after caller mutation, want 1", got[0])
	}
}
