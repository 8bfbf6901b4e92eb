// Package track owns the live session/run accounting state. All mutation
// flows through the Tracker state machine in tracker.go; this file holds
// the data model and the invariant-preserving mutation helpers.
package track

import (
	"time"

	"pedtrack/internal/ped"
)

// Activity is the operator-selected kind of a session. It is never
// inferred from log text.
type Activity string

const (
	Hunting  Activity = "hunting"
	Crafting Activity = "crafting"
	Mining   Activity = "mining"
)

// Material is one blueprint ingredient.
type Material struct {
	Item     string
	Quantity int
}

// Blueprint is the reference-data view of a crafting recipe.
type Blueprint struct {
	Name       string
	ResultItem string
	ResultTT   ped.Amount
	Materials  []Material
}

// Resolver looks up static reference data. Implementations may return
// false for unknown names; the aggregator then records zero value and
// flags the entry unresolved instead of failing the event.
type Resolver interface {
	LookupItem(name string) (ped.Amount, bool)
	LookupBlueprint(name string) (*Blueprint, bool)
}

// ItemRow is one line of a run's loot breakdown. TotalValue is always
// recomputed from TTTotal and Markup, never mutated independently, so the
// two representations of the same quantity cannot drift.
type ItemRow struct {
	Count      int
	TTTotal    ped.Amount // accumulated TT value across drops
	Markup     ped.Amount // percent over TT applied to this row
	TotalValue ped.Amount // TTTotal * (1 + Markup/100)
}

// UnitValue returns the average TT value per unit for display.
func (r *ItemRow) UnitValue() ped.Amount {
	if r.Count == 0 {
		return ped.Zero()
	}
	u, _ := r.TTTotal.Div(ped.FromInt(int64(r.Count)))
	return u
}

func (r *ItemRow) recompute() {
	r.TotalValue = r.TTTotal.WithMarkup(r.Markup)
}

// SkillEntry accumulates gains and procs for one named skill. Gains counts
// the observed gain events so the proc percentage has a denominator.
type SkillEntry struct {
	Total ped.Amount
	Gains int
	Procs int
}

// CombatLedger tallies damage exchanged over a session.
type CombatLedger struct {
	DamageDealt    ped.Amount
	DamageReceived ped.Amount
	CritsDealt     int
	CritsReceived  int
	Misses         int
	Kills          int
	Deaths         int
}

// CraftLedger tallies manufacturing outcomes over a session. Failures are
// first-class: they carry material cost and feed the success rate.
type CraftLedger struct {
	Attempts     int
	Successes    int
	MaterialCost ped.Amount
	ResultReturn ped.Amount
	Unresolved   int // attempts whose blueprint was unknown
}

// Run is a bounded sub-unit of a Session: one hunting spot, one crafting
// batch. Runs are appended in order and never reordered or deleted.
type Run struct {
	ID        string
	StartTime time.Time
	EndTime   *time.Time
	Notes     string
	// Implicit marks a run the tracker opened on its own because loot
	// arrived with no run started.
	Implicit bool

	Spend        ped.Amount // manual weapon/ammo spend
	EnhancerCost ped.Amount
	ExtraSpend   ped.Amount

	Items           map[string]*ItemRow
	ReturnTotal     ped.Amount // sum of Items[*].TotalValue
	CreaturesLooted int
	// UnresolvedEnhancers counts enhancer breaks whose catalog lookup
	// missed: those were charged zero instead of their real cost.
	UnresolvedEnhancers int
}

// Closed reports whether the run has ended.
func (r *Run) Closed() bool { return r.EndTime != nil }

// SpendTotal is everything paid out during the run.
func (r *Run) SpendTotal() ped.Amount {
	return r.Spend.Add(r.EnhancerCost).Add(r.ExtraSpend)
}

// addLoot folds one drop into the breakdown and returns the exact change
// in the run's return total.
func (r *Run) addLoot(item string, quantity int, tt ped.Amount, markup ped.Amount) ped.Amount {
	row, ok := r.Items[item]
	if !ok {
		row = &ItemRow{Markup: markup}
		r.Items[item] = row
	}
	before := row.TotalValue
	row.Count += quantity
	row.TTTotal = row.TTTotal.Add(tt)
	row.recompute()
	delta := row.TotalValue.Sub(before)
	r.ReturnTotal = r.ReturnTotal.Add(delta)
	return delta
}

// Session is the top-level tracking unit between an explicit start and
// stop command.
type Session struct {
	ID        string
	Activity  Activity
	StartTime time.Time
	EndTime   *time.Time

	Runs []*Run

	CreaturesLooted int
	TotalCost       ped.Amount
	TotalReturn     ped.Amount
	TotalSkillGain  ped.Amount
	Globals         int
	HOFs            int

	Skills map[string]*SkillEntry
	Combat CombatLedger
	Craft  CraftLedger
}

// Active reports whether the session is still open.
func (s *Session) Active() bool { return s.EndTime == nil }

// skill returns the entry for name, creating it on first sight.
func (s *Session) skill(name string) *SkillEntry {
	e, ok := s.Skills[name]
	if !ok {
		e = &SkillEntry{}
		s.Skills[name] = e
	}
	return e
}

// ClosedRuns returns the runs that have ended, in append order.
func (s *Session) ClosedRuns() []*Run {
	var out []*Run
	for _, r := range s.Runs {
		if r.Closed() {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	c.Runs = make([]*Run, len(s.Runs))
	for i, r := range s.Runs {
		rc := *r
		if r.EndTime != nil {
			t := *r.EndTime
			rc.EndTime = &t
		}
		rc.Items = make(map[string]*ItemRow, len(r.Items))
		for name, row := range r.Items {
			rowCopy := *row
			rc.Items[name] = &rowCopy
		}
		c.Runs[i] = &rc
	}
	c.Skills = make(map[string]*SkillEntry, len(s.Skills))
	for name, e := range s.Skills {
		ec := *e
		c.Skills[name] = &ec
	}
	return &c
}
