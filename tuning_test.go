package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTuningOverlaysDefaults(t *testing.T) {
	path := writeTuning(t, `
stageSeconds: 600
difficulty:
  baseSpawnInterval: 2
  multiplayer:
    enabled: false
progression:
  maxWeaponSlots: 0
  optionsPerRound: 3
`)
	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.StageSeconds != 600 || tn.Difficulty.BaseSpawnInterval != 2 {
		t.Errorf("file values should apply: %+v", tn)
	}
	if tn.Difficulty.BaseMaxEnemies != 40 || tn.Difficulty.Multiplayer.MaxEnemiesPerPlayer != 0.6 {
		t.Error("values missing from the file keep their defaults")
	}
	if tn.Difficulty.Multiplayer.Enabled {
		t.Error("multiplayer scaling should be off")
	}
	if tn.Progression.MaxWeaponSlots != 1 {
		t.Errorf("weapon slots clamp to 1, got %d", tn.Progression.MaxWeaponSlots)
	}
	if tn.Progression.OptionsPerRound != 3 {
		t.Errorf("expected 3 options, got %d", tn.Progression.OptionsPerRound)
	}
}

func TestLoadTuningErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero spawn interval", "difficulty:\n  baseSpawnInterval: 0\n"},
		{"zero enemy health", "difficulty:\n  baseEnemyHealth: -1\n"},
		{"negative stage", "stageSeconds: -5\n"},
		{"bad yaml", "difficulty: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTuning(writeTuning(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("a missing file should fail")
	}
}

func TestLoadTuningCapsOptionsPerRound(t *testing.T) {
	tn, err := LoadTuning(writeTuning(t, "progression:\n  optionsPerRound: 8\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.Progression.OptionsPerRound != MaxOptionsPerRound {
		t.Errorf("expected %d options, got %d", MaxOptionsPerRound, tn.Progression.OptionsPerRound)
	}
}

func TestDefaultTuningIsClampStable(t *testing.T) {
	d := DefaultTuning()
	c := d
	c.clamp()
	if c != d {
		t.Error("defaults should already satisfy every clamp")
	}
	if err := d.validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDeriveAttackStats(t *testing.T) {
	s := NewUpgradeState("p")
	s.ApplyCharacter(CharVanguard)
	s.Weapons[WeaponBlaster].levelUp(RuleFor(WeaponBlaster))
	s.Weapons[WeaponBlaster].levelUp(RuleFor(WeaponBlaster))
	s.ProjectilePierceBonus = 2

	st := DeriveAttackStats(s)
	if st.ProjectileCount != 2 {
		t.Errorf("level 3 blaster adds a projectile, got %d", st.ProjectileCount)
	}
	if math.Abs(st.WeaponDamageMult-1.3) > 1e-9 {
		t.Errorf("expected weapon damage 1.3, got %v", st.WeaponDamageMult)
	}
	if math.Abs(st.DamageMult-1.1) > 1e-9 || st.PierceBonus != 2 {
		t.Errorf("global stats should pass through: %+v", st)
	}
}

func TestPushAttack(t *testing.T) {
	s := NewUpgradeState("p")
	s.ApplyCharacter(CharWarden)
	s.Weapons[WeaponFrost].unlock()

	var a AttackProfile
	PushAttack(&a, s)
	if a.Stats.AreaMult != s.AttackAreaMult {
		t.Error("stats should be applied")
	}
	active := a.ActiveWeapons()
	if len(active) != 2 || active[0] != WeaponOrbit || active[1] != WeaponFrost {
		t.Errorf("expected orbit and frost, got %v", active)
	}

	PushAttack(nil, s)
	PushAttack(&a, nil) // both are no-ops
	a.SetWeaponStats(WeaponKind(99), WeaponStats{})
}

func TestExampleTuningMatchesDefaults(t *testing.T) {
	tn, err := LoadTuning("tuning.example.yaml")
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if tn != DefaultTuning() {
		t.Error("tuning.example.yaml should document the built-in defaults")
	}
}
