// Package event defines the closed set of typed game events recognised in
// the chat log, plus the log position metadata used for ordering and
// duplicate suppression.
package event

import (
	"fmt"

	"pedtrack/internal/ped"
)

// Position identifies where in the log a line ended.
// Offset is the byte offset of the line terminator; Generation counts file
// identities (it bumps when the log is rotated to a new file).
type Position struct {
	Offset     int64
	Generation uint64
}

// Direction distinguishes damage dealt from damage received.
type Direction int

const (
	Dealt Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Dealt {
		return "dealt"
	}
	return "received"
}

// Event is one recognised game event. The set of implementations is closed:
// new variants are added here, never outside the package.
type Event interface {
	// Pos returns the log position the event was parsed at.
	Pos() Position
	// Signature returns a stable identity string covering the variant and
	// its salient fields. Combined with Position it keys deduplication.
	Signature() string

	isEvent()
}

// LootDrop is an item looted from a creature or received as loot.
// TTValue is the total TT value of the whole stack, not per unit.
type LootDrop struct {
	Position Position
	Creature string // empty when the log line names no source creature
	Item     string
	Quantity int
	TTValue  ped.Amount
}

func (e LootDrop) Pos() Position { return e.Position }
func (e LootDrop) Signature() string {
	return fmt.Sprintf("loot|%s|%s|%d|%s", e.Creature, e.Item, e.Quantity, e.TTValue)
}
func (LootDrop) isEvent() {}

// GlobalDrop is a rare drop broadcast on the Globals channel. Item carries
// the creature, constructed item or deposit named in the broadcast.
type GlobalDrop struct {
	Position Position
	Player   string
	Creature string
	Item     string
	Quantity int
	TTValue  ped.Amount
	HOF      bool
	Location string
}

func (e GlobalDrop) Pos() Position { return e.Position }
func (e GlobalDrop) Signature() string {
	return fmt.Sprintf("global|%s|%s|%s|%s|%t", e.Player, e.Creature, e.Item, e.TTValue, e.HOF)
}
func (GlobalDrop) isEvent() {}

// SkillGain is experience or points gained in a named skill.
type SkillGain struct {
	Position Position
	Skill    string
	Amount   ped.Amount
}

func (e SkillGain) Pos() Position { return e.Position }
func (e SkillGain) Signature() string {
	return fmt.Sprintf("skill|%s|%s", e.Skill, e.Amount)
}
func (SkillGain) isEvent() {}

// SkillProc is a bonus trigger on a skill-relevant action.
type SkillProc struct {
	Position Position
	Skill    string
}

func (e SkillProc) Pos() Position     { return e.Position }
func (e SkillProc) Signature() string { return "proc|" + e.Skill }
func (SkillProc) isEvent()            {}

// CombatAction is one damage exchange. Miss covers dodges, evades, deflects
// and plain misses; Fatal marks the avatar's death.
type CombatAction struct {
	Position  Position
	Direction Direction
	Amount    ped.Amount
	Critical  bool
	Miss      bool
	Fatal     bool
}

func (e CombatAction) Pos() Position { return e.Position }
func (e CombatAction) Signature() string {
	return fmt.Sprintf("combat|%s|%s|%t|%t|%t", e.Direction, e.Amount, e.Critical, e.Miss, e.Fatal)
}
func (CombatAction) isEvent() {}

// CraftResult is one manufacturing attempt. Consumed materials are not in
// the log line; the aggregator resolves them from the blueprint catalog.
type CraftResult struct {
	Position  Position
	Blueprint string
	Success   bool
}

func (e CraftResult) Pos() Position { return e.Position }
func (e CraftResult) Signature() string {
	return fmt.Sprintf("craft|%s|%t", e.Blueprint, e.Success)
}
func (CraftResult) isEvent() {}

// EnhancerBreak is a consumed equipment enhancer, a per-run cost.
type EnhancerBreak struct {
	Position Position
	Enhancer string
}

func (e EnhancerBreak) Pos() Position     { return e.Position }
func (e EnhancerBreak) Signature() string { return "enhancer|" + e.Enhancer }
func (EnhancerBreak) isEvent()            {}
