// Package dedup suppresses replayed events after a tailer recovery.
//
// A truncation or rotation false-positive makes the tailer re-read content
// it already delivered; the aggregator must never count the same drop
// twice. The window is bounded so memory stays flat over long sessions:
// an exact duplicate older than the window is accepted again, which is the
// acceptable failure direction; suppressing a genuinely new event is not.
package dedup

import (
	"fmt"

	"pedtrack/internal/event"
)

// Window is a bounded recency filter over (position, signature) pairs.
type Window struct {
	size int
	seen map[string]struct{}
	fifo []string
	next int
}

// DefaultSize bounds the window when the caller passes no explicit size.
const DefaultSize = 4096

// New returns a Window remembering up to size recent events.
func New(size int) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{
		size: size,
		seen: make(map[string]struct{}, size),
		fifo: make([]string, 0, size),
	}
}

// key identifies an event instance. The file generation is deliberately
// excluded: a falsely detected rotation replays the same file from zero,
// and those replays must collide with the originals.
func key(ev event.Event) string {
	return fmt.Sprintf("%d|%s", ev.Pos().Offset, ev.Signature())
}

// Accept reports whether ev should be forwarded. It returns false exactly
// when an event with the same position and signature is still inside the
// window.
func (w *Window) Accept(ev event.Event) bool {
	k := key(ev)
	if _, dup := w.seen[k]; dup {
		return false
	}

	if len(w.fifo) < w.size {
		w.fifo = append(w.fifo, k)
	} else {
		// Evict the oldest entry, reusing its slot.
		delete(w.seen, w.fifo[w.next])
		w.fifo[w.next] = k
		w.next = (w.next + 1) % w.size
	}
	w.seen[k] = struct{}{}
	return true
}

// Len returns the number of entries currently remembered.
func (w *Window) Len() int { return len(w.seen) }
