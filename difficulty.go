package main

import "math"

// DifficultyState is the derived difficulty for one tick. Nothing in it is
// stored between ticks; it is recomputed from elapsed time and player count.
type DifficultyState struct {
	MonsterLevel  int
	EnrageActive  bool
	EnrageElapsed float64

	// Per-extra-player factors, before level and enrage scaling
	CapFactor      float64
	IntervalFactor float64

	HealthMult float64
	DamageMult float64
	SpeedMult  float64
	XPMult     float64

	Spawn SpawnParams
}

// DifficultyScaler turns elapsed time and player count into spawn parameters
type DifficultyScaler struct {
	cfg DifficultyTuning
}

// NewDifficultyScaler creates a scaler for the given curves
func NewDifficultyScaler(cfg DifficultyTuning) *DifficultyScaler {
	return &DifficultyScaler{cfg: cfg}
}

// MonsterLevel returns floor(elapsed / interval) + 1, never below 1
func (d *DifficultyScaler) MonsterLevel(elapsed float64) int {
	interval := d.cfg.LevelIntervalSeconds
	if interval <= 0 || elapsed <= 0 {
		return 1
	}
	lvl := int(math.Floor(elapsed/interval)) + 1
	if lvl < 1 {
		lvl = 1
	}
	return lvl
}

// Compute evaluates every curve for the given moment
func (d *DifficultyScaler) Compute(elapsed float64, players int) DifficultyState {
	cfg := d.cfg
	if elapsed < 0 {
		elapsed = 0
	}

	st := DifficultyState{MonsterLevel: d.MonsterLevel(elapsed)}
	levelFactor := float64(st.MonsterLevel - 1)

	extra := 0.0
	if cfg.Multiplayer.Enabled && players > 1 {
		extra = float64(players - 1)
	}
	mp := cfg.Multiplayer
	st.CapFactor = 1 + mp.MaxEnemiesPerPlayer*extra
	st.IntervalFactor = math.Max(mp.SpawnIntervalFloor, 1-mp.SpawnIntervalPerPlayer*extra)
	if extra == 0 {
		st.IntervalFactor = 1
	}
	healthPF := 1 + mp.HealthPerPlayer*extra
	damagePF := 1 + mp.DamagePerPlayer*extra
	xpPF := 1 + mp.XPPerPlayer*extra

	enrage := cfg.Enrage
	healthEnr, damageEnr, speedEnr := 1.0, 1.0, 1.0
	if elapsed > enrage.StartTime {
		st.EnrageActive = true
		st.EnrageElapsed = elapsed - enrage.StartTime
		healthEnr += enrage.HealthPerSecond * st.EnrageElapsed
		damageEnr += enrage.DamagePerSecond * st.EnrageElapsed
		speedEnr += enrage.SpeedPerSecond * st.EnrageElapsed
	}

	interval := math.Max(cfg.MinSpawnInterval, cfg.BaseSpawnInterval*st.IntervalFactor-elapsed*cfg.SpawnDecayPerSecond)
	if st.EnrageActive {
		// enrage only ever shortens the interval, down to its own floor
		reduced := math.Max(enrage.MinSpawnInterval, interval-st.EnrageElapsed*enrage.SpawnIntervalPerSecond)
		if reduced < interval {
			interval = reduced
		}
	}

	maxEnemies := int(math.Floor(float64(cfg.BaseMaxEnemies)*st.CapFactor)) +
		int(math.Floor(cfg.MaxEnemiesPerLevel*levelFactor))
	if st.EnrageActive {
		maxEnemies += int(math.Floor(enrage.MaxEnemiesBonusPerSecond * st.EnrageElapsed))
	}
	if maxEnemies < 1 {
		maxEnemies = 1
	}

	st.HealthMult = healthPF * (1 + cfg.HealthPerLevel*levelFactor) * healthEnr
	st.DamageMult = damagePF * (1 + cfg.DamagePerLevel*levelFactor) * damageEnr
	st.SpeedMult = (1 + cfg.SpeedPerLevel*levelFactor) * speedEnr
	st.XPMult = xpPF * (1 + cfg.XPPerLevel*levelFactor)

	st.Spawn = SpawnParams{
		SpawnInterval:   interval,
		MaxEnemies:      maxEnemies,
		EnemyMoveSpeed:  cfg.BaseEnemySpeed * st.SpeedMult,
		EnemyDamage:     cfg.BaseEnemyDamage * st.DamageMult,
		EnemyMaxHealth:  cfg.BaseEnemyHealth * st.HealthMult,
		EnemyXPReward:   cfg.BaseEnemyXP * st.XPMult,
		EliteHealthMult: cfg.EliteHealthMult,
		BossHealthMult:  cfg.BossHealthMult,
		MonsterLevel:    st.MonsterLevel,
	}
	return st
}
