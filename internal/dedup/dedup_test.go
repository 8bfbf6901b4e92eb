package dedup

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"pedtrack/internal/event"
	"pedtrack/internal/ped"
)

func loot(offset int64, item string) event.LootDrop {
	return event.LootDrop{
		Position: event.Position{Offset: offset},
		Item:     item,
		Quantity: 1,
		TTValue:  ped.MustParse("0.05"),
	}
}

func TestDuplicateSuppressed(t *testing.T) {
	w := New(16)
	ev := loot(100, "Shrapnel")

	if !w.Accept(ev) {
		t.Fatal("first occurrence rejected")
	}
	if w.Accept(ev) {
		t.Error("replay at the same position accepted")
	}
}

func TestReplayAcrossGenerations(t *testing.T) {
	// A falsely detected rotation bumps the generation but replays the
	// same bytes; the window must still recognise the duplicate.
	w := New(16)
	first := loot(100, "Shrapnel")
	replay := first
	replay.Position.Generation = 1

	if !w.Accept(first) {
		t.Fatal("first occurrence rejected")
	}
	if w.Accept(replay) {
		t.Error("generation-bumped replay accepted")
	}
}

func TestDistinctEventsAccepted(t *testing.T) {
	w := New(16)

	if !w.Accept(loot(100, "Shrapnel")) {
		t.Error("rejected new event")
	}
	// Same position, different content (the file was genuinely rewritten).
	if !w.Accept(loot(100, "Animal Hide")) {
		t.Error("rejected event with same position but different signature")
	}
	// Same content, different position (the creature dropped it again).
	if !w.Accept(loot(200, "Shrapnel")) {
		t.Error("rejected identical drop at a new position")
	}
}

func TestEvictionKeepsMemoryFlat(t *testing.T) {
	w := New(4)
	for i := int64(0); i < 100; i++ {
		if !w.Accept(loot(i, "Shrapnel")) {
			t.Fatalf("fresh event at offset %d rejected", i)
		}
		if w.Len() > 4 {
			t.Fatalf("window grew to %d entries, bound is 4", w.Len())
		}
	}

	// The oldest entries fell out of the window: replaying one is
	// accepted again (the tolerated false negative).
	if !w.Accept(loot(0, "Shrapnel")) {
		t.Error("evicted entry still suppressed")
	}
}

// TestNeverSuppressesFreshEvents is the property the window exists to
// uphold: an event whose (position, signature) pair has not been seen is
// always forwarded, whatever came before it.
func TestNeverSuppressesFreshEvents(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := New(rapid.IntRange(1, 64).Draw(rt, "window"))
		seen := make(map[string]bool)

		n := rapid.IntRange(1, 200).Draw(rt, "events")
		for i := 0; i < n; i++ {
			offset := rapid.Int64Range(0, 20).Draw(rt, "offset")
			item := rapid.SampledFrom([]string{"Shrapnel", "Hide", "Oil"}).Draw(rt, "item")
			ev := loot(offset, item)

			key := fmt.Sprintf("%s@%d", ev.Signature(), ev.Pos().Offset)
			accepted := w.Accept(ev)
			if !seen[key] && !accepted {
				rt.Fatalf("fresh event suppressed: %s", key)
			}
			seen[key] = true
		}
	})
}
