package track

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"pedtrack/internal/event"
	"pedtrack/internal/ped"
)

// State-machine misuse errors. The tracker rejects the call and leaves its
// state exactly as it was.
var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = errors.New("no active session")
	ErrRunActive     = errors.New("run already active")
	ErrNoRun         = errors.New("no active run")
)

// DefaultPendingCap bounds the queue of events buffered while no session
// is active.
const DefaultPendingCap = 256

// Tracker is the single mutable-state owner of the pipeline: a state
// machine over NoSession → SessionActive → (NoRun|RunActive). All methods
// are safe for concurrent use, but by design only the monitor goroutine
// mutates via Apply; readers take Snapshot copies.
type Tracker struct {
	mu sync.Mutex

	markup   ped.Amount
	resolver Resolver

	session *Session
	run     *Run // open run, nil in NoRun

	pending        []event.Event
	pendingCap     int
	pendingDropped int

	lastSignal string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMarkup sets the percentage applied over TT value on loot rows.
func WithMarkup(pct ped.Amount) Option {
	return func(t *Tracker) { t.markup = pct }
}

// WithPendingCap overrides the pending-queue bound.
func WithPendingCap(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.pendingCap = n
		}
	}
}

// New returns a Tracker in the NoSession state. resolver may be nil, in
// which case every reference-data lookup degrades to unresolved.
func New(resolver Resolver, opts ...Option) *Tracker {
	t := &Tracker{
		resolver:   resolver,
		pendingCap: DefaultPendingCap,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// StartSession opens a new session for the given activity and replays any
// buffered pending events into it. Fails with ErrSessionActive while a
// session is open.
func (t *Tracker) StartSession(activity Activity) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return ErrSessionActive
	}
	t.session = &Session{
		ID:        uuid.New().String(),
		Activity:  activity,
		StartTime: time.Now(),
		Skills:    make(map[string]*SkillEntry),
	}
	t.lastSignal = ""

	replay := t.pending
	t.pending = nil
	for _, ev := range replay {
		t.apply(ev)
	}
	return nil
}

// StartRun opens a run inside the active session. An implicit run opened
// by stray loot is closed and replaced; an explicitly started run must be
// ended first.
func (t *Tracker) StartRun(notes string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return ErrNoSession
	}
	if t.run != nil {
		if !t.run.Implicit {
			return ErrRunActive
		}
		t.closeRun()
	}
	t.openRun(notes, false)
	return nil
}

// EndRun closes the open run. Fails with ErrNoRun when none is open.
func (t *Tracker) EndRun() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return ErrNoSession
	}
	if t.run == nil {
		return ErrNoRun
	}
	t.closeRun()
	return nil
}

// EndSession closes any open run, stamps the session end time and returns
// the finalized session for archival. The tracker transitions to NoSession.
func (t *Tracker) EndSession() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil, ErrNoSession
	}
	if t.run != nil {
		t.closeRun()
	}
	now := time.Now()
	t.session.EndTime = &now
	done := t.session
	t.session = nil
	return done, nil
}

// AddSpend records manual weapon/ammo spend on the open run.
func (t *Tracker) AddSpend(a ped.Amount) error { return t.addRunCost(a, spendKind) }

// AddExtraSpend records miscellaneous manual spend on the open run.
func (t *Tracker) AddExtraSpend(a ped.Amount) error { return t.addRunCost(a, extraKind) }

type costKind int

const (
	spendKind costKind = iota
	enhancerKind
	extraKind
)

func (t *Tracker) addRunCost(a ped.Amount, kind costKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return ErrNoSession
	}
	if t.run == nil {
		return ErrNoRun
	}
	t.chargeRun(a, kind)
	return nil
}

func (t *Tracker) chargeRun(a ped.Amount, kind costKind) {
	switch kind {
	case spendKind:
		t.run.Spend = t.run.Spend.Add(a)
	case enhancerKind:
		t.run.EnhancerCost = t.run.EnhancerCost.Add(a)
	case extraKind:
		t.run.ExtraSpend = t.run.ExtraSpend.Add(a)
	}
	t.session.TotalCost = t.session.TotalCost.Add(a)
}

// Apply folds one deduplicated event into the active session. With no
// session active the event is buffered (bounded; overflow counted and
// dropped, surfaced via Snapshot) and replayed when a session starts.
func (t *Tracker) Apply(ev event.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		if len(t.pending) >= t.pendingCap {
			t.pendingDropped++
			return
		}
		t.pending = append(t.pending, ev)
		return
	}
	t.apply(ev)
}

// NoteSignal records a tailer rotation/truncation signal for the snapshot.
func (t *Tracker) NoteSignal(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSignal = s
}

// apply assumes the lock is held and a session is active.
func (t *Tracker) apply(ev event.Event) {
	switch e := ev.(type) {
	case event.LootDrop:
		t.applyLoot(e.Item, e.Quantity, e.TTValue, e.Creature)

	case event.GlobalDrop:
		name := e.Item
		if name == "" {
			name = e.Creature
		}
		t.applyLoot(name, e.Quantity, e.TTValue, e.Creature)
		t.session.Globals++
		if e.HOF {
			t.session.HOFs++
		}

	case event.SkillGain:
		entry := t.session.skill(e.Skill)
		entry.Total = entry.Total.Add(e.Amount)
		entry.Gains++
		t.session.TotalSkillGain = t.session.TotalSkillGain.Add(e.Amount)

	case event.SkillProc:
		t.session.skill(e.Skill).Procs++

	case event.CombatAction:
		t.applyCombat(e)

	case event.CraftResult:
		t.applyCraft(e)

	case event.EnhancerBreak:
		t.ensureRun()
		cost, ok := t.lookupItem(e.Enhancer)
		if !ok {
			t.run.UnresolvedEnhancers++
			cost = ped.Zero()
		}
		t.chargeRun(cost, enhancerKind)
	}
}

func (t *Tracker) applyLoot(item string, quantity int, tt ped.Amount, creature string) {
	t.ensureRun()
	delta := t.run.addLoot(item, quantity, tt, t.markup)
	t.session.TotalReturn = t.session.TotalReturn.Add(delta)
	if creature != "" {
		t.run.CreaturesLooted++
		t.session.CreaturesLooted++
		t.session.Combat.Kills++
	}
}

func (t *Tracker) applyCombat(e event.CombatAction) {
	c := &t.session.Combat
	switch {
	case e.Fatal:
		c.Deaths++
	case e.Miss:
		c.Misses++
	case e.Direction == event.Dealt:
		c.DamageDealt = c.DamageDealt.Add(e.Amount)
		if e.Critical {
			c.CritsDealt++
		}
	default:
		c.DamageReceived = c.DamageReceived.Add(e.Amount)
		if e.Critical {
			c.CritsReceived++
		}
	}
}

// applyCraft charges consumed materials as cost on every attempt and adds
// the result value to return only on success. A failed attempt never
// vanishes: it still counts toward the success-rate denominator.
func (t *Tracker) applyCraft(e event.CraftResult) {
	craft := &t.session.Craft
	craft.Attempts++
	if e.Success {
		craft.Successes++
	}

	bp, ok := t.lookupBlueprint(e.Blueprint)
	if !ok {
		craft.Unresolved++
		return
	}

	cost := ped.Zero()
	for _, mat := range bp.Materials {
		tt, found := t.lookupItem(mat.Item)
		if !found {
			craft.Unresolved++
			continue
		}
		cost = cost.Add(tt.MulInt(int64(mat.Quantity)))
	}
	craft.MaterialCost = craft.MaterialCost.Add(cost)
	t.session.TotalCost = t.session.TotalCost.Add(cost)

	if e.Success {
		craft.ResultReturn = craft.ResultReturn.Add(bp.ResultTT)
		t.session.TotalReturn = t.session.TotalReturn.Add(bp.ResultTT)
	}
}

func (t *Tracker) lookupItem(name string) (ped.Amount, bool) {
	if t.resolver == nil {
		return ped.Zero(), false
	}
	return t.resolver.LookupItem(name)
}

func (t *Tracker) lookupBlueprint(name string) (*Blueprint, bool) {
	if t.resolver == nil {
		return nil, false
	}
	return t.resolver.LookupBlueprint(name)
}

// ensureRun lazily opens an implicit run so loot arriving before an
// explicit "start run" is never lost.
func (t *Tracker) ensureRun() {
	if t.run == nil {
		t.openRun("", true)
	}
}

func (t *Tracker) openRun(notes string, implicit bool) {
	r := &Run{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		Notes:     notes,
		Implicit:  implicit,
		Items:     make(map[string]*ItemRow),
	}
	t.session.Runs = append(t.session.Runs, r)
	t.run = r
}

func (t *Tracker) closeRun() {
	now := time.Now()
	t.run.EndTime = &now
	t.run = nil
}

// Snapshot is a consistent read-only copy of tracker state published to
// presentation and notification collaborators.
type Snapshot struct {
	Session        *Session // nil in NoSession; deep copy otherwise
	RunOpen        bool
	PendingCount   int
	PendingDropped int
	LastSignal     string
	TakenAt        time.Time
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Session:        t.session.Clone(),
		RunOpen:        t.run != nil,
		PendingCount:   len(t.pending),
		PendingDropped: t.pendingDropped,
		LastSignal:     t.lastSignal,
		TakenAt:        time.Now(),
	}
}
