// Package skills implements the experience curve and per-skill XP tracking.
// XP is the single source of truth; the cached level is recomputed on every
// mutation and never diverges.
package skills

import (
	"math"
	"sort"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

// XPForLevel returns the total XP required to reach a level.
// Level 1 (and below) costs nothing; from level 2 the cost grows
// geometrically: floor(100 × 1.15^(level−2)).
func XPForLevel(level int) float64 {
	if level <= 1 {
		return 0
	}
	return math.Floor(100 * math.Pow(1.15, float64(level-2)))
}

// LevelFromXP returns the unique level L ≥ 1 with
// XPForLevel(L) ≤ xp < XPForLevel(L+1).
func LevelFromXP(xp float64) int {
	if xp <= 0 {
		return 1
	}
	level := 1
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

type skillState struct {
	xp    float64
	level int
}

// Tracker holds per-skill XP state and gates activity unlocking.
type Tracker struct {
	bus    *events.Bus
	skills map[content.SkillID]*skillState
}

// NewTracker creates an empty tracker; unseen skills are level 1 with 0 XP.
func NewTracker(bus *events.Bus) *Tracker {
	return &Tracker{
		bus:    bus,
		skills: make(map[content.SkillID]*skillState),
	}
}

// XP returns accumulated XP for a skill.
func (t *Tracker) XP(id content.SkillID) float64 {
	if s, ok := t.skills[id]; ok {
		return s.xp
	}
	return 0
}

// Level returns the current level for a skill.
func (t *Tracker) Level(id content.SkillID) int {
	if s, ok := t.skills[id]; ok {
		return s.level
	}
	return 1
}

// AddXP accumulates XP and recomputes the level, emitting a level-up
// notification when it rises (possibly by more than one level).
func (t *Tracker) AddXP(id content.SkillID, amount float64) {
	if amount <= 0 {
		return
	}
	s, ok := t.skills[id]
	if !ok {
		s = &skillState{level: 1}
		t.skills[id] = s
	}
	old := s.level
	s.xp += amount
	s.level = LevelFromXP(s.xp)
	if s.level > old && t.bus != nil {
		t.bus.Emit(events.TopicSkillLevelUp, events.SkillLevelUp{
			Skill: id,
			From:  old,
			To:    s.level,
		})
	}
}

// SetXP restores a skill's XP from a save, recomputing the level silently.
func (t *Tracker) SetXP(id content.SkillID, xp float64) {
	if xp < 0 {
		xp = 0
	}
	t.skills[id] = &skillState{xp: xp, level: LevelFromXP(xp)}
}

// TotalLevel sums the level of every tracked skill.
func (t *Tracker) TotalLevel() int {
	total := 0
	for _, s := range t.skills {
		total += s.level
	}
	return total
}

// IsActivityUnlocked reports whether the governing skill meets the
// activity's level requirement.
func (t *Tracker) IsActivityUnlocked(a content.Activity) bool {
	return t.Level(a.Skill) >= a.LevelRequired
}

// Snapshot returns all skill XP keyed by id.
func (t *Tracker) Snapshot() map[content.SkillID]float64 {
	out := make(map[content.SkillID]float64, len(t.skills))
	for id, s := range t.skills {
		out[id] = s.xp
	}
	return out
}

// SkillIDs returns tracked skill ids in sorted order.
func (t *Tracker) SkillIDs() []content.SkillID {
	ids := make([]content.SkillID, 0, len(t.skills))
	for id := range t.skills {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
