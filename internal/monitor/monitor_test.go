package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pedtrack/internal/ped"
	"pedtrack/internal/track"
)

const testInterval = 5 * time.Millisecond

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitForSnapshot polls the snapshot channel until done returns true or the
// deadline passes.
func waitForSnapshot(t *testing.T, m *Monitor, done func(track.Snapshot) bool) track.Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-m.Snapshots():
			if done(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	writeLog(t, path,
		"2024-01-18 14:30:25 [System] [] You have looted a Shrapnel (0.05 PED) from a Feffoid",
		"2024-01-18 14:30:26 [System] [] You have gained 0.5 experience in your Rifle skill",
		"2024-01-18 14:30:27 [Globals] [] Jane Doe killed a creature (Atrox Prowler) with a value of 87 PED!",
	)

	tr := track.New(nil)
	if err := tr.StartSession(track.Hunting); err != nil {
		t.Fatal(err)
	}
	m := New(tr, Options{LogPath: path, Interval: testInterval, FromStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	snap := waitForSnapshot(t, m, func(s track.Snapshot) bool {
		return s.Session != nil && s.Session.Globals == 1
	})
	// Shrapnel drop plus the global both land in the return total.
	if snap.Session.CreaturesLooted != 2 {
		t.Errorf("CreaturesLooted = %d, want 2", snap.Session.CreaturesLooted)
	}
	want := ped.MustParse("0.05").Add(ped.FromInt(87))
	if snap.Session.TotalReturn.Cmp(want) != 0 {
		t.Errorf("TotalReturn = %s, want %s", snap.Session.TotalReturn, want)
	}
	if snap.Session.Skills["Rifle"] == nil {
		t.Error("skill gain not applied")
	}

	// The global is also announced on the notification channel.
	select {
	case g := <-m.Globals():
		if g.Creature != "Atrox Prowler" {
			t.Errorf("announced creature = %q", g.Creature)
		}
	case <-time.After(3 * time.Second):
		t.Error("no global notification delivered")
	}
}

func TestPlayerNameFiltersGlobals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	writeLog(t, path,
		"2024-01-18 14:30:25 [Globals] [] Someone Else killed a creature (Atrox Prowler) with a value of 87 PED!",
		"2024-01-18 14:30:26 [Globals] [] Jane Doe killed a creature (Feffoid Bandit) with a value of 54 PED!",
	)

	tr := track.New(nil)
	if err := tr.StartSession(track.Hunting); err != nil {
		t.Fatal(err)
	}
	m := New(tr, Options{
		LogPath:    path,
		Interval:   testInterval,
		PlayerName: "Jane Doe",
		FromStart:  true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	snap := waitForSnapshot(t, m, func(s track.Snapshot) bool {
		return s.Session != nil && s.Session.Globals >= 1
	})
	if snap.Session.Globals != 1 {
		t.Errorf("Globals = %d, want 1 (other player filtered)", snap.Session.Globals)
	}
	if snap.Session.TotalReturn.Cmp(ped.FromInt(54)) != 0 {
		t.Errorf("TotalReturn = %s, want 54", snap.Session.TotalReturn)
	}
}

func TestAppendedLinesPickedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	writeLog(t, path)

	tr := track.New(nil)
	if err := tr.StartSession(track.Hunting); err != nil {
		t.Fatal(err)
	}
	m := New(tr, Options{LogPath: path, Interval: testInterval})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Let the monitor open the tailer at end-of-file before appending.
	waitForSnapshot(t, m, func(track.Snapshot) bool { return true })

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("2024-01-18 14:31:00 [System] [] You have looted a Shrapnel (0.05 PED) from a Feffoid\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	snap := waitForSnapshot(t, m, func(s track.Snapshot) bool {
		return s.Session != nil && s.Session.CreaturesLooted == 1
	})
	if snap.Session.TotalReturn.Cmp(ped.MustParse("0.05")) != 0 {
		t.Errorf("TotalReturn = %s, want 0.05", snap.Session.TotalReturn)
	}
}

func TestWakePathNormalized(t *testing.T) {
	// The fsnotify wake hint compares against event names, which arrive
	// absolute; a relative or uncleaned configured path must still match.
	m := New(track.New(nil), Options{LogPath: "logs/../logs/chat.log"})

	if !filepath.IsAbs(m.wakePath) {
		t.Errorf("wakePath = %q, want absolute", m.wakePath)
	}
	want, err := filepath.Abs("logs/chat.log")
	if err != nil {
		t.Fatal(err)
	}
	if m.wakePath != want {
		t.Errorf("wakePath = %q, want %q", m.wakePath, want)
	}
}

func TestCancelStopsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	writeLog(t, path)

	m := New(track.New(nil), Options{LogPath: path, Interval: testInterval})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
