package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
)

func utterance(text string, started, ended chan struct{}, failed chan error) speech.Utterance {
	u := speech.Utterance{Text: text, Rate: 1, Pitch: 1, Volume: 1}
	if started != nil {
		u.Started = func() { close(started) }
	}
	if ended != nil {
		u.Ended = func() { close(ended) }
	}
	if failed != nil {
		u.Failed = func(err error) { failed <- err }
	}
	return u
}

func waitCh(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// TestLifecycleSignals tests the normal Started-then-Ended sequence.
func TestLifecycleSignals(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck

	started := make(chan struct{})
	ended := make(chan struct{})
	if err := e.Speak(utterance("olá", started, ended, nil)); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	waitCh(t, started, "start signal")
	if !e.Speaking() {
		t.Error("Speaking() = false after the start signal")
	}

	waitCh(t, ended, "end signal")
	if e.Speaking() {
		t.Error("Speaking() = true after the end signal")
	}
	if got := e.SpeakCalls(); got != 1 {
		t.Errorf("SpeakCalls() = %d, want 1", got)
	}
}

// TestEmptyUtteranceRejected tests input validation.
func TestEmptyUtteranceRejected(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck

	err := e.Speak(speech.Utterance{})
	if !errors.Is(err, speech.ErrEmptyUtterance) {
		t.Errorf("Speak(empty) = %v, want %v", err, speech.ErrEmptyUtterance)
	}
}

// TestDropNext tests the silent-drop script: the request is accepted but
// leaves no pending trace and emits no signals.
func TestDropNext(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck
	e.DropNext(1)

	started := make(chan struct{})
	if err := e.Speak(utterance("dropped", started, nil, nil)); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if e.Pending() || e.Speaking() {
		t.Error("dropped request left a pending or speaking trace")
	}

	select {
	case <-started:
		t.Error("dropped request fired the start signal")
	case <-time.After(50 * time.Millisecond):
	}

	// The script applies once; the next request vocalizes normally.
	started2 := make(chan struct{})
	if err := e.Speak(utterance("fala", started2, nil, nil)); err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}
	waitCh(t, started2, "start of the follow-up request")
}

// TestFailNext tests that a scripted failure starts and then fails, without
// an end signal.
func TestFailNext(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck

	wantErr := errors.New("boom")
	e.FailNext(wantErr)

	started := make(chan struct{})
	ended := make(chan struct{})
	failed := make(chan error, 1)
	if err := e.Speak(utterance("vai falhar", started, ended, failed)); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	waitCh(t, started, "start signal")
	select {
	case err := <-failed:
		if !errors.Is(err, wantErr) {
			t.Errorf("failure signal carried %v, want %v", err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the failure signal")
	}

	select {
	case <-ended:
		t.Error("failed utterance also fired the end signal")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestAbortNext tests the launch-failure script: the utterance fails without
// ever producing a start signal.
func TestAbortNext(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck

	wantErr := errors.New("died on launch")
	e.AbortNext(wantErr)

	started := make(chan struct{})
	failed := make(chan error, 1)
	if err := e.Speak(utterance("não chega a falar", started, nil, failed)); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	select {
	case err := <-failed:
		if !errors.Is(err, wantErr) {
			t.Errorf("failure signal carried %v, want %v", err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the failure signal")
	}

	select {
	case <-started:
		t.Error("aborted utterance fired the start signal")
	case <-time.After(50 * time.Millisecond):
	}
	if e.Pending() || e.Speaking() {
		t.Error("aborted utterance left a pending or speaking trace")
	}

	// The script applies once.
	started2 := make(chan struct{})
	if err := e.Speak(utterance("agora fala", started2, nil, nil)); err != nil {
		t.Fatalf("follow-up Speak failed: %v", err)
	}
	waitCh(t, started2, "start of the follow-up request")
}

// TestCancelSuppressesSignals tests that cancelled utterances go silent.
func TestCancelSuppressesSignals(t *testing.T) {
	e := New(WithTimings(20*time.Millisecond, 20*time.Millisecond))
	defer e.Close() //nolint:errcheck

	started := make(chan struct{})
	if err := e.Speak(utterance("cancelado", started, nil, nil)); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	e.Cancel()

	select {
	case <-started:
		t.Error("cancelled utterance fired the start signal")
	case <-time.After(100 * time.Millisecond):
	}
	if e.Pending() || e.Speaking() {
		t.Error("engine still active after Cancel")
	}
	if got := e.CancelCalls(); got != 1 {
		t.Errorf("CancelCalls() = %d, want 1", got)
	}
}

// TestSpeakReplacesActive tests that a second Speak silences the first.
func TestSpeakReplacesActive(t *testing.T) {
	e := New(WithTimings(5*time.Millisecond, 200*time.Millisecond))
	defer e.Close() //nolint:errcheck

	firstEnded := make(chan struct{})
	if err := e.Speak(utterance("primeiro", nil, firstEnded, nil)); err != nil {
		t.Fatalf("first Speak failed: %v", err)
	}

	secondStarted := make(chan struct{})
	if err := e.Speak(utterance("segundo", secondStarted, nil, nil)); err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}

	waitCh(t, secondStarted, "start of the replacement")
	select {
	case <-firstEnded:
		t.Error("replaced utterance fired the end signal")
	case <-time.After(50 * time.Millisecond):
	}

	texts := e.SpokenTexts()
	if len(texts) != 2 || texts[0] != "primeiro" || texts[1] != "segundo" {
		t.Errorf("SpokenTexts() = %v, want both texts in order", texts)
	}
}

// TestVoicesChangedNotification tests that SetVoices signals discovery.
func TestVoicesChangedNotification(t *testing.T) {
	e := New()
	defer e.Close() //nolint:errcheck

	e.SetVoices(speech.Voice{ID: "v1", Name: "Voz", Language: "pt-BR"})

	select {
	case <-e.Notifications():
	case <-time.After(time.Second):
		t.Fatal("no voices-changed notification after SetVoices")
	}

	voices := e.Voices()
	if len(voices) != 1 || voices[0].ID != "v1" {
		t.Errorf("Voices() = %v, want the replacement list", voices)
	}
}

// TestClosedEngine tests post-Close behavior.
func TestClosedEngine(t *testing.T) {
	e := New()
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if e.Available() {
		t.Error("Available() = true after Close")
	}
	err := e.Speak(speech.Utterance{Text: "tarde demais"})
	if !errors.Is(err, speech.ErrEngineClosed) {
		t.Errorf("Speak after Close = %v, want %v", err, speech.ErrEngineClosed)
	}
}
