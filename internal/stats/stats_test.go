package stats

import (
	"testing"
	"time"

	"pedtrack/internal/ped"
	"pedtrack/internal/track"
)

func closedRun(start time.Time, spend, ret string) *track.Run {
	end := start.Add(30 * time.Minute)
	return &track.Run{
		StartTime:   start,
		EndTime:     &end,
		Spend:       ped.MustParse(spend),
		ReturnTotal: ped.MustParse(ret),
	}
}

func TestReturnPercent(t *testing.T) {
	s := &track.Session{
		TotalCost:   ped.FromInt(100),
		TotalReturn: ped.FromInt(92),
	}
	pct, ok := ReturnPercent(s)
	if !ok || pct.Cmp(ped.FromInt(92)) != 0 {
		t.Errorf("got %s (ok=%t), want 92", pct, ok)
	}
}

func TestReturnPercentNoCost(t *testing.T) {
	// Zero cost means no data, not a division by zero.
	s := &track.Session{TotalReturn: ped.FromInt(5)}
	if _, ok := ReturnPercent(s); ok {
		t.Error("zero-cost session reported a return percentage")
	}
	if _, ok := ReturnPercent(nil); ok {
		t.Error("nil session reported a return percentage")
	}
}

func TestProfit(t *testing.T) {
	s := &track.Session{
		TotalCost:   ped.MustParse("10.50"),
		TotalReturn: ped.MustParse("9.25"),
	}
	if got := Profit(s); got.Cmp(ped.MustParse("-1.25")) != 0 {
		t.Errorf("Profit = %s, want -1.25", got)
	}
}

func TestCostPerKill(t *testing.T) {
	s := &track.Session{
		TotalCost:       ped.FromInt(30),
		CreaturesLooted: 4,
	}
	got, ok := CostPerKill(s)
	if !ok || got.Cmp(ped.MustParse("7.5")) != 0 {
		t.Errorf("got %s (ok=%t), want 7.5", got, ok)
	}

	if _, ok := CostPerKill(&track.Session{TotalCost: ped.FromInt(30)}); ok {
		t.Error("zero kills reported a cost per kill")
	}
}

func TestBestRunTieGoesToEarlier(t *testing.T) {
	base := time.Date(2024, 1, 18, 14, 0, 0, 0, time.UTC)
	// Ratios 1.5, 2.0, 2.0: the earlier of the tied 2.0 runs wins.
	s := &track.Session{
		Runs: []*track.Run{
			closedRun(base, "10", "15"),
			closedRun(base.Add(time.Hour), "10", "20"),
			closedRun(base.Add(2*time.Hour), "5", "10"),
		},
	}

	best, ok := BestRun(s)
	if !ok {
		t.Fatal("no best run found")
	}
	if !best.StartTime.Equal(base.Add(time.Hour)) {
		t.Errorf("best run started %s, want the earlier tied run at %s",
			best.StartTime, base.Add(time.Hour))
	}

	worst, ok := WorstRun(s)
	if !ok {
		t.Fatal("no worst run found")
	}
	if !worst.StartTime.Equal(base) {
		t.Errorf("worst run started %s, want %s", worst.StartTime, base)
	}
}

func TestBestRunSkipsZeroSpendAndOpenRuns(t *testing.T) {
	base := time.Date(2024, 1, 18, 14, 0, 0, 0, time.UTC)
	open := &track.Run{
		StartTime:   base,
		Spend:       ped.FromInt(1),
		ReturnTotal: ped.FromInt(100),
	}
	zeroSpend := closedRun(base.Add(time.Hour), "0", "50")
	normal := closedRun(base.Add(2*time.Hour), "10", "12")

	s := &track.Session{Runs: []*track.Run{open, zeroSpend, normal}}
	best, ok := BestRun(s)
	if !ok {
		t.Fatal("no best run found")
	}
	if best != normal {
		t.Error("best run is not the only eligible closed run with spend")
	}

	s = &track.Session{Runs: []*track.Run{open, zeroSpend}}
	if _, ok := BestRun(s); ok {
		t.Error("best run reported with no eligible runs")
	}
}

func TestProcPercent(t *testing.T) {
	e := &track.SkillEntry{Gains: 3, Procs: 1}
	pct, ok := ProcPercent(e)
	if !ok || pct.Cmp(ped.FromInt(25)) != 0 {
		t.Errorf("got %s (ok=%t), want 25", pct, ok)
	}

	if _, ok := ProcPercent(&track.SkillEntry{}); ok {
		t.Error("empty entry reported a proc percentage")
	}
	if _, ok := ProcPercent(nil); ok {
		t.Error("nil entry reported a proc percentage")
	}
}

func TestCraftSuccessRate(t *testing.T) {
	c := &track.CraftLedger{Attempts: 8, Successes: 2}
	pct, ok := CraftSuccessRate(c)
	if !ok || pct.Cmp(ped.FromInt(25)) != 0 {
		t.Errorf("got %s (ok=%t), want 25", pct, ok)
	}

	if _, ok := CraftSuccessRate(&track.CraftLedger{}); ok {
		t.Error("zero attempts reported a success rate")
	}
}
