package speech

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Catalog caches the most recent voice list the platform engine reported.
// The snapshot is replaced wholesale on every refresh, never merged, and may
// legitimately be empty before the engine finishes asynchronous discovery.
type Catalog struct {
	engine Engine

	mu     sync.RWMutex
	voices []Voice

	done      chan struct{}
	closeOnce sync.Once
}

// NewCatalog creates a catalog for the given engine, takes an initial
// snapshot and subscribes to the engine's voices-changed notification for the
// catalog's lifetime.
func NewCatalog(engine Engine) *Catalog {
	c := &Catalog{
		engine: engine,
		done:   make(chan struct{}),
	}
	c.Refresh()
	go c.watch()
	return c
}

// watch refreshes the snapshot every time the engine signals that its voice
// list may have changed.
func (c *Catalog) watch() {
	notifications := c.engine.Notifications()
	for {
		select {
		case _, ok := <-notifications:
			if !ok {
				return
			}
			c.Refresh()
		case <-c.done:
			return
		}
	}
}

// Refresh replaces the snapshot with the engine's current voice list.
// Idempotent and safe to call from any state; an engine reporting zero
// voices is valid, not a failure.
func (c *Catalog) Refresh() {
	voices := c.engine.Voices()

	c.mu.Lock()
	previous := len(c.voices)
	c.voices = voices
	c.mu.Unlock()

	if len(voices) != previous {
		log.Debug("voice catalog refreshed", "voices", len(voices), "previous", previous)
	}
}

// Voices returns the current snapshot in engine order. The returned slice is
// a copy; callers may hold it across refreshes.
func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len returns the number of voices in the current snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// Close releases the voices-changed subscription. Idempotent.
func (c *Catalog) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
