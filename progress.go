package main

import "math"

// XPForLevel returns the experience needed to go from level to level+1:
// XPBase * level^XPExponent
func XPForLevel(level int, cfg ProgressionTuning) float64 {
	if level < 1 {
		level = 1
	}
	return cfg.XPBase * math.Pow(float64(level), cfg.XPExponent)
}

// TeamProgress is the shared experience pool of a session. Every player
// feeds it and every level-up opens a round for the whole team.
type TeamProgress struct {
	Level int
	XP    float64 // progress into the current level
	Total float64 // everything earned this run

	cfg ProgressionTuning
}

// NewTeamProgress starts at level 1 with no experience
func NewTeamProgress(cfg ProgressionTuning) TeamProgress {
	return TeamProgress{Level: 1, cfg: cfg}
}

// XPToNext returns what the current level needs in total
func (t *TeamProgress) XPToNext() float64 {
	return XPForLevel(t.Level, t.cfg)
}

// MaxedOut reports whether the level cap is reached
func (t *TeamProgress) MaxedOut() bool {
	return t.cfg.MaxLevel > 0 && t.Level >= t.cfg.MaxLevel
}

// Add banks experience and returns every level reached, in order
func (t *TeamProgress) Add(xp float64) []int {
	if xp <= 0 || math.IsNaN(xp) || math.IsInf(xp, 0) || t.MaxedOut() {
		return nil
	}
	t.Total += xp
	t.XP += xp
	var reached []int
	for !t.MaxedOut() {
		need := t.XPToNext()
		if need <= 0 {
			need = 1
		}
		if t.XP < need {
			break
		}
		t.XP -= need
		t.Level++
		reached = append(reached, t.Level)
	}
	if t.MaxedOut() {
		t.XP = 0
	}
	return reached
}

// Reset goes back to level 1
func (t *TeamProgress) Reset() {
	t.Level = 1
	t.XP = 0
	t.Total = 0
}
