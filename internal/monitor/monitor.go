// Package monitor runs the ingestion pipeline: it polls the log tailer on
// a fixed interval, parses and deduplicates lines, folds events into the
// tracker and publishes read-only snapshots after every cycle.
package monitor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pedtrack/internal/dedup"
	"pedtrack/internal/event"
	"pedtrack/internal/parser"
	"pedtrack/internal/tailer"
	"pedtrack/internal/track"
)

// DefaultInterval bounds the latency between a game event and its
// reflection in aggregated state.
const DefaultInterval = 100 * time.Millisecond

// retryInterval is how often a missing log file is re-tried at startup.
const retryInterval = 2 * time.Second

// Options configures a Monitor.
type Options struct {
	LogPath string
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// DedupWindow is the recency-window size; dedup.DefaultSize when zero.
	DedupWindow int
	// PlayerName filters Globals-channel broadcasts: when set, only this
	// player's globals are applied. Empty applies all of them.
	PlayerName string
	// FromStart reads the whole existing log instead of only new lines.
	FromStart bool
}

// Monitor drives one tracker from one log file. Create with New, then run
// Run on its own goroutine; snapshots and global notifications arrive on
// the channels.
type Monitor struct {
	opts    Options
	tracker *track.Tracker
	window  *dedup.Window

	// wakePath is opts.LogPath in absolute form, so fsnotify event names
	// (reported relative to the watched directory) compare correctly even
	// for a relative or uncleaned configured path.
	wakePath string

	snapshots chan track.Snapshot
	globals   chan event.GlobalDrop

	// diagnostics, written only from the Run goroutine
	unparsed int
	dropped  int
}

// New returns a Monitor feeding t from the log configured in opts.
func New(t *track.Tracker, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	wakePath := filepath.Clean(opts.LogPath)
	if abs, err := filepath.Abs(wakePath); err == nil {
		wakePath = abs
	}
	return &Monitor{
		opts:      opts,
		tracker:   t,
		window:    dedup.New(opts.DedupWindow),
		wakePath:  wakePath,
		snapshots: make(chan track.Snapshot, 1),
		globals:   make(chan event.GlobalDrop, 16),
	}
}

// Snapshots delivers a consistent state copy after each poll cycle.
// Latest-wins: a slow consumer only ever misses intermediate states.
func (m *Monitor) Snapshots() <-chan track.Snapshot { return m.snapshots }

// Globals delivers each applied GlobalDrop at most once, for announcement
// and screenshot triggers.
func (m *Monitor) Globals() <-chan event.GlobalDrop { return m.globals }

// Run polls until ctx is cancelled. A missing log file is retried until it
// appears; nothing the log does can make Run fail. Events already applied
// when ctx is cancelled stay applied.
func (m *Monitor) Run(ctx context.Context) error {
	t, err := m.openTailer(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	// fsnotify on the log's directory is an early-wake hint between
	// ticks; the ticker remains the correctness mechanism, so a platform
	// without working notifications just polls at the fixed interval.
	var wake <-chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(filepath.Dir(m.wakePath)); err == nil {
			wake = watcher.Events
		}
		defer watcher.Close()
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.cycle(t)
		case ev, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			if ev.Has(fsnotify.Write) && filepath.Clean(ev.Name) == m.wakePath {
				m.cycle(t)
			}
		}
	}
}

// openTailer opens the log, retrying while it does not exist yet.
func (m *Monitor) openTailer(ctx context.Context) (*tailer.Tailer, error) {
	open := tailer.New
	if m.opts.FromStart {
		open = tailer.NewFromStart
	}
	for {
		t, err := open(m.opts.LogPath)
		if err == nil {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// cycle is one poll: read, classify, dedup, apply, publish.
func (m *Monitor) cycle(t *tailer.Tailer) {
	lines, signals, _ := t.Poll()

	for _, sig := range signals {
		// Rotation and truncation are informational; the session stays
		// open (ending it is an operator decision, surfaced in the UI).
		m.tracker.NoteSignal(sig.String())
	}

	for _, line := range lines {
		ev, ok := parser.Parse(line.Text, line.Pos)
		if !ok {
			m.unparsed++
			continue
		}
		if g, isGlobal := ev.(event.GlobalDrop); isGlobal {
			if m.opts.PlayerName != "" && g.Player != m.opts.PlayerName {
				continue
			}
		}
		if !m.window.Accept(ev) {
			m.dropped++
			continue
		}
		m.tracker.Apply(ev)
		if g, isGlobal := ev.(event.GlobalDrop); isGlobal {
			select {
			case m.globals <- g:
			default:
				// Notification consumers lagging lose announcements, not
				// accounting: the event is already applied.
			}
		}
	}

	m.publish()
}

// publish replaces any unconsumed snapshot with the current one.
func (m *Monitor) publish() {
	snap := m.tracker.Snapshot()
	select {
	case <-m.snapshots:
	default:
	}
	select {
	case m.snapshots <- snap:
	default:
	}
}
