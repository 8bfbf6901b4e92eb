// Package parser classifies raw chat-log lines into typed events.
//
// Parsing is stateless: one line in, at most one event out. The pattern set
// below is the contract surface with the game client's log format; matchers
// run in order and the first hit wins, so more specific phrasings (critical
// hits, Hall of Fame broadcasts) sit above the generic forms they subsume.
package parser

import (
	"regexp"
	"strconv"

	"pedtrack/internal/event"
	"pedtrack/internal/ped"
)

// envelopeRE splits a log line into timestamp, channel, speaker and message:
//
//	2024-01-18 14:30:25 [System] [] You inflicted 12.5 points of damage
var envelopeRE = regexp.MustCompile(`^([\d-]+ [\d:]+) \[(\w+)\] \[([^\]]*)\] (.*)$`)

type matcher struct {
	re    *regexp.Regexp
	build func(m []string, pos event.Position) (event.Event, bool)
}

// System-channel matchers. Order matters: the critical-hit line contains the
// plain damage line verbatim, and the experience line is a superset of the
// generic points-gained line.
var systemMatchers = []matcher{
	{
		re: regexp.MustCompile(`^Critical hit - Additional damage! You inflicted (\d+(?:\.\d+)?) points of damage`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.CombatAction{Position: pos, Direction: event.Dealt, Amount: amt, Critical: true}, true
		},
	},
	{
		re: regexp.MustCompile(`^You inflicted (\d+(?:\.\d+)?) points of damage`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.CombatAction{Position: pos, Direction: event.Dealt, Amount: amt}, true
		},
	},
	{
		re: regexp.MustCompile(`^Critical hit - You took (\d+(?:\.\d+)?) points of damage`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.CombatAction{Position: pos, Direction: event.Received, Amount: amt, Critical: true}, true
		},
	},
	{
		re: regexp.MustCompile(`^You took (\d+(?:\.\d+)?) points of damage`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.CombatAction{Position: pos, Direction: event.Received, Amount: amt}, true
		},
	},
	{
		re: regexp.MustCompile(`^(?:Damage deflected!|You Evaded the attack|You missed|The target (?:Dodged|Evaded|Jammed) your attack)`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.CombatAction{Position: pos, Direction: event.Dealt, Miss: true}, true
		},
	},
	{
		re: regexp.MustCompile(`^You were killed by (.+)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.CombatAction{Position: pos, Direction: event.Received, Fatal: true}, true
		},
	},
	{
		re: regexp.MustCompile(`^You have looted a (.+) \((\d+(?:\.\d+)?) PED\) from a (.+)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			tt, err := ped.FromString(m[2])
			if err != nil {
				return nil, false
			}
			return event.LootDrop{Position: pos, Item: m[1], Quantity: 1, TTValue: tt, Creature: m[3]}, true
		},
	},
	{
		re: regexp.MustCompile(`^You received (.+) x \((\d+)\) Value: (\d+(?:\.\d+)?) PED`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			qty, err := strconv.Atoi(m[2])
			if err != nil || qty <= 0 {
				return nil, false
			}
			tt, err := ped.FromString(m[3])
			if err != nil {
				return nil, false
			}
			return event.LootDrop{Position: pos, Item: m[1], Quantity: qty, TTValue: tt}, true
		},
	},
	{
		re: regexp.MustCompile(`^You have gained (\d+(?:\.\d+)?) experience in your ([A-Za-z ]+) skill`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.SkillGain{Position: pos, Skill: m[2], Amount: amt}, true
		},
	},
	{
		re: regexp.MustCompile(`^Your ([A-Za-z ]+) has improved by (\d+(?:\.\d+)?)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[2])
			if err != nil {
				return nil, false
			}
			return event.SkillGain{Position: pos, Skill: m[1], Amount: amt}, true
		},
	},
	{
		re: regexp.MustCompile(`^You have gained (\d+(?:\.\d+)?) ([A-Za-z ]+)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			amt, err := ped.FromString(m[1])
			if err != nil {
				return nil, false
			}
			return event.SkillGain{Position: pos, Skill: m[2], Amount: amt}, true
		},
	},
	{
		re: regexp.MustCompile(`^Your ([A-Za-z ]+) skill enhancer triggered`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.SkillProc{Position: pos, Skill: m[1]}, true
		},
	},
	{
		re: regexp.MustCompile(`^Your enhancer (.+) on your .+ broke\.`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.EnhancerBreak{Position: pos, Enhancer: m[1]}, true
		},
	},
	{
		re: regexp.MustCompile(`^You have successfully constructed (.+)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.CraftResult{Position: pos, Blueprint: m[1], Success: true}, true
		},
	},
	{
		re: regexp.MustCompile(`^You failed to construct (.+)$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return event.CraftResult{Position: pos, Blueprint: m[1], Success: false}, true
		},
	},
}

// Globals-channel matchers. HOF phrasings extend the plain global lines, so
// they are tried first; the located kill variant sits above the plain one
// for the same reason.
var globalMatchers = []matcher{
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) killed a creature \(([\w\s(),-]+)\) with a value of (\d+) PED! A record has been added to the Hall of Fame!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildGlobal(m[1], m[2], m[3], pos, true, "")
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) killed a creature \(([\w\s(),-]+)\) with a value of (\d+) PED at (.+)!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildGlobal(m[1], m[2], m[3], pos, false, m[4])
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) killed a creature \(([\w\s(),-]+)\) with a value of (\d+) PED!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildGlobal(m[1], m[2], m[3], pos, false, "")
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) constructed an item \(([\w\s(),-]+)\) worth (\d+) PED! A record has been added to the Hall of Fame!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildItemGlobal(m[1], m[2], m[3], pos, true)
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) constructed an item \(([\w\s(),-]+)\) worth (\d+) PED!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildItemGlobal(m[1], m[2], m[3], pos, false)
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) found a deposit \(([\w\s()-]+)\) with a value of (\d+) PED! A record has been added to the Hall of Fame!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildItemGlobal(m[1], m[2], m[3], pos, true)
		},
	},
	{
		re: regexp.MustCompile(`^([\w\s'()-]+) found a deposit \(([\w\s()-]+)\) with a value of (\d+) PED!$`),
		build: func(m []string, pos event.Position) (event.Event, bool) {
			return buildItemGlobal(m[1], m[2], m[3], pos, false)
		},
	},
}

func buildGlobal(player, creature, value string, pos event.Position, hof bool, loc string) (event.Event, bool) {
	tt, err := ped.FromString(value)
	if err != nil {
		return nil, false
	}
	return event.GlobalDrop{
		Position: pos,
		Player:   player,
		Creature: creature,
		Quantity: 1,
		TTValue:  tt,
		HOF:      hof,
		Location: loc,
	}, true
}

func buildItemGlobal(player, item, value string, pos event.Position, hof bool) (event.Event, bool) {
	tt, err := ped.FromString(value)
	if err != nil {
		return nil, false
	}
	return event.GlobalDrop{
		Position: pos,
		Player:   player,
		Item:     item,
		Quantity: 1,
		TTValue:  tt,
		HOF:      hof,
	}, true
}

// Parse classifies one raw log line. It returns false for anything it does
// not recognise, including lines whose numeric captures fail to parse
// (expected for lines split mid-write); no input is ever an error.
func Parse(line string, pos event.Position) (event.Event, bool) {
	env := envelopeRE.FindStringSubmatch(line)
	if env == nil {
		return nil, false
	}
	channel, msg := env[2], env[4]

	var matchers []matcher
	switch channel {
	case "System":
		matchers = systemMatchers
	case "Globals":
		matchers = globalMatchers
	default:
		return nil, false
	}

	for _, mt := range matchers {
		if m := mt.re.FindStringSubmatch(msg); m != nil {
			return mt.build(m, pos)
		}
	}
	return nil, false
}
