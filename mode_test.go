package main

import (
	"math"
	"testing"
)

func TestSessionClockFreeze(t *testing.T) {
	var c SessionClock
	if got := c.Advance(0.5); got != 0.5 {
		t.Errorf("expected 0.5 advance, got %v", got)
	}

	c.Freeze()
	c.Freeze()
	if got := c.Advance(1); got != 0 {
		t.Errorf("frozen clock should not advance, got %v", got)
	}
	c.Unfreeze()
	if !c.Frozen() {
		t.Error("freezes nest: one unfreeze is not enough")
	}
	c.Unfreeze()
	c.Unfreeze() // extra unfreeze is ignored
	if c.Frozen() {
		t.Error("clock should be running")
	}

	c.Advance(0.25)
	c.Advance(-1)
	if c.Elapsed() != 0.75 {
		t.Errorf("expected 0.75s elapsed, got %v", c.Elapsed())
	}

	c.Freeze()
	c.Reset()
	if c.Elapsed() != 0 || c.Frozen() {
		t.Error("reset should zero and unfreeze the clock")
	}
}

func TestModeControllerStageComplete(t *testing.T) {
	m := NewModeController(60)
	if m.Evaluate(59.9, 1, 1) {
		t.Error("run should still be playing")
	}
	if !m.Evaluate(60, 1, 1) {
		t.Fatal("run should end at the stage length")
	}
	if m.Phase() != PhaseStageComplete || m.EndedAt() != 60 {
		t.Errorf("expected stage_complete at 60, got %s at %v", m.Phase(), m.EndedAt())
	}
	if m.Evaluate(61, 0, 1) {
		t.Error("an ended run reports its end once")
	}
}

func TestModeControllerWipeWins(t *testing.T) {
	m := NewModeController(60)
	if !m.Evaluate(60, 0, 2) {
		t.Fatal("run should end")
	}
	if m.Phase() != PhaseGameOver {
		t.Errorf("a wipe on the final tick is a game over, got %s", m.Phase())
	}
}

func TestModeControllerEndlessAndEmpty(t *testing.T) {
	m := NewModeController(0)
	if m.Evaluate(1e6, 1, 1) {
		t.Error("endless runs never complete")
	}
	if m.Evaluate(10, 0, 0) {
		t.Error("an empty session is not a wipe")
	}
	m.Evaluate(10, 0, 1)
	m.Reset()
	if !m.Running() || m.EndedAt() != 0 {
		t.Error("reset should start a new run")
	}
}

func TestRunPhaseString(t *testing.T) {
	tests := []struct {
		p    RunPhase
		want string
	}{
		{PhasePlaying, "playing"},
		{PhaseGameOver, "game_over"},
		{PhaseStageComplete, "stage_complete"},
		{RunPhase(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("%d: expected %s, got %s", tt.p, tt.want, got)
		}
	}
}

func TestXPForLevel(t *testing.T) {
	cfg := DefaultTuning().Progression
	if got := XPForLevel(1, cfg); got != 5 {
		t.Errorf("level 1 needs 5, got %v", got)
	}
	if got := XPForLevel(2, cfg); math.Abs(got-12.31) > 0.01 {
		t.Errorf("level 2 needs ~12.31, got %v", got)
	}
	if XPForLevel(0, cfg) != XPForLevel(1, cfg) {
		t.Error("levels below 1 count as 1")
	}
}

func TestTeamProgressMultiLevel(t *testing.T) {
	p := NewTeamProgress(DefaultTuning().Progression)
	if got := p.Add(4); len(got) != 0 {
		t.Errorf("4 xp is not a level, got %v", got)
	}
	got := p.Add(14) // 18 total: 5 for level 2, 12.31 for level 3
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected levels [2 3], got %v", got)
	}
	if math.Abs(p.XP-(18-5-XPForLevel(2, p.cfg))) > 1e-9 {
		t.Errorf("unexpected carry-over %v", p.XP)
	}
	if p.Total != 18 {
		t.Errorf("expected 18 total, got %v", p.Total)
	}
}

func TestTeamProgressRejectsBadXP(t *testing.T) {
	p := NewTeamProgress(DefaultTuning().Progression)
	for _, xp := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		if got := p.Add(xp); got != nil {
			t.Errorf("Add(%v) should be ignored, got %v", xp, got)
		}
	}
	if p.Total != 0 || p.Level != 1 {
		t.Error("bad xp must not change progress")
	}
}

func TestTeamProgressMaxLevel(t *testing.T) {
	cfg := DefaultTuning().Progression
	cfg.MaxLevel = 3
	p := NewTeamProgress(cfg)
	got := p.Add(1e6)
	if len(got) != 2 || p.Level != 3 {
		t.Fatalf("expected to stop at level 3, got level %d via %v", p.Level, got)
	}
	if p.XP != 0 || !p.MaxedOut() {
		t.Error("a maxed team banks no further progress")
	}
	if p.Add(100) != nil {
		t.Error("no levels past the cap")
	}
	p.Reset()
	if p.Level != 1 || p.Total != 0 {
		t.Error("reset goes back to level 1")
	}
}
