// Package stats derives financial summaries from tracker state. Every
// function is a pure read over a snapshot: nothing here is cached, so the
// numbers cannot go stale against the session they describe.
package stats

import (
	"pedtrack/internal/ped"
	"pedtrack/internal/track"
)

var hundred = ped.FromInt(100)

// ReturnPercent is total return over total cost as a percentage. ok is
// false when the session has no cost yet: "no data", never a division.
func ReturnPercent(s *track.Session) (ped.Amount, bool) {
	if s == nil {
		return ped.Zero(), false
	}
	ratio, ok := s.TotalReturn.Div(s.TotalCost)
	if !ok {
		return ped.Zero(), false
	}
	return ratio.Mul(hundred), true
}

// Profit is total return minus total cost.
func Profit(s *track.Session) ped.Amount {
	if s == nil {
		return ped.Zero()
	}
	return s.TotalReturn.Sub(s.TotalCost)
}

// CostPerKill is total cost over creatures looted, with the same zero
// guard as ReturnPercent.
func CostPerKill(s *track.Session) (ped.Amount, bool) {
	if s == nil || s.CreaturesLooted == 0 {
		return ped.Zero(), false
	}
	return s.TotalCost.Div(ped.FromInt(int64(s.CreaturesLooted)))
}

// runRatio is return over spend for one run; ok is false for zero spend.
func runRatio(r *track.Run) (ped.Amount, bool) {
	return r.ReturnTotal.Div(r.SpendTotal())
}

// BestRun returns the closed run with the highest return/spend ratio.
// Ties go to the earlier-started run. Runs with zero spend are skipped:
// their ratio is undefined, not infinite.
func BestRun(s *track.Session) (*track.Run, bool) {
	return pickRun(s, func(cmp int) bool { return cmp > 0 })
}

// WorstRun is BestRun's argmin counterpart.
func WorstRun(s *track.Session) (*track.Run, bool) {
	return pickRun(s, func(cmp int) bool { return cmp < 0 })
}

func pickRun(s *track.Session, better func(cmp int) bool) (*track.Run, bool) {
	if s == nil {
		return nil, false
	}
	var (
		best      *track.Run
		bestRatio ped.Amount
	)
	for _, r := range s.ClosedRuns() {
		ratio, ok := runRatio(r)
		if !ok {
			continue
		}
		if best == nil || better(ratio.Cmp(bestRatio)) {
			// Strict comparison keeps the earliest-started run on ties,
			// because ClosedRuns preserves append order.
			best = r
			bestRatio = ratio
		}
	}
	return best, best != nil
}

// ProcPercent is the share of observed actions for a skill that were
// procs: procs / (procs + gains). ok is false with no observations.
func ProcPercent(e *track.SkillEntry) (ped.Amount, bool) {
	if e == nil {
		return ped.Zero(), false
	}
	total := e.Procs + e.Gains
	if total == 0 {
		return ped.Zero(), false
	}
	ratio, _ := ped.FromInt(int64(e.Procs)).Div(ped.FromInt(int64(total)))
	return ratio.Mul(hundred), true
}

// CraftSuccessRate is successes over attempts as a percentage.
func CraftSuccessRate(c *track.CraftLedger) (ped.Amount, bool) {
	if c == nil || c.Attempts == 0 {
		return ped.Zero(), false
	}
	ratio, _ := ped.FromInt(int64(c.Successes)).Div(ped.FromInt(int64(c.Attempts)))
	return ratio.Mul(hundred), true
}
