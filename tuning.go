package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DifficultyTuning holds the enemy scaling curves
type DifficultyTuning struct {
	LevelIntervalSeconds float64 `yaml:"levelIntervalSeconds"` // seconds per monster level

	BaseSpawnInterval   float64 `yaml:"baseSpawnInterval"`
	MinSpawnInterval    float64 `yaml:"minSpawnInterval"`
	SpawnDecayPerSecond float64 `yaml:"spawnDecayPerSecond"`

	BaseMaxEnemies     int     `yaml:"baseMaxEnemies"`
	MaxEnemiesPerLevel float64 `yaml:"maxEnemiesPerLevel"`

	BaseEnemyHealth float64 `yaml:"baseEnemyHealth"`
	BaseEnemyDamage float64 `yaml:"baseEnemyDamage"`
	BaseEnemySpeed  float64 `yaml:"baseEnemySpeed"`
	BaseEnemyXP     float64 `yaml:"baseEnemyXP"`

	HealthPerLevel float64 `yaml:"healthPerLevel"`
	DamagePerLevel float64 `yaml:"damagePerLevel"`
	SpeedPerLevel  float64 `yaml:"speedPerLevel"`
	XPPerLevel     float64 `yaml:"xpPerLevel"`

	EliteHealthMult float64 `yaml:"eliteHealthMult"`
	BossHealthMult  float64 `yaml:"bossHealthMult"`
	EliteEvery      int     `yaml:"eliteEvery"`      // every Nth spawn is an elite, 0 = never
	BossEveryLevels int     `yaml:"bossEveryLevels"` // a boss each time the monster level reaches a multiple, 0 = never

	Multiplayer MultiplayerTuning `yaml:"multiplayer"`
	Enrage      EnrageTuning      `yaml:"enrage"`
}

// MultiplayerTuning holds the per-extra-player coefficients
type MultiplayerTuning struct {
	Enabled                bool    `yaml:"enabled"`
	MaxEnemiesPerPlayer    float64 `yaml:"maxEnemiesPerPlayer"`
	SpawnIntervalPerPlayer float64 `yaml:"spawnIntervalPerPlayer"`
	SpawnIntervalFloor     float64 `yaml:"spawnIntervalFloor"` // lowest interval factor
	HealthPerPlayer        float64 `yaml:"healthPerPlayer"`
	DamagePerPlayer        float64 `yaml:"damagePerPlayer"`
	XPPerPlayer            float64 `yaml:"xpPerPlayer"`
}

// EnrageTuning holds the late-game ramp
type EnrageTuning struct {
	StartTime                float64 `yaml:"startTime"` // seconds of elapsed time
	HealthPerSecond          float64 `yaml:"healthPerSecond"`
	DamagePerSecond          float64 `yaml:"damagePerSecond"`
	SpeedPerSecond           float64 `yaml:"speedPerSecond"`
	SpawnIntervalPerSecond   float64 `yaml:"spawnIntervalPerSecond"`
	MinSpawnInterval         float64 `yaml:"minSpawnInterval"`
	MaxEnemiesBonusPerSecond float64 `yaml:"maxEnemiesBonusPerSecond"`
}

// ProgressionTuning holds caps for the upgrade model and the XP curve
type ProgressionTuning struct {
	MaxStatLevel         int     `yaml:"maxStatLevel"`
	MaxStatSlots         int     `yaml:"maxStatSlots"`
	MaxWeaponLevel       int     `yaml:"maxWeaponLevel"`
	MaxWeaponSlots       int     `yaml:"maxWeaponSlots"`
	OptionsPerRound      int     `yaml:"optionsPerRound"`
	FallbackHealFraction float64 `yaml:"fallbackHealFraction"`
	FallbackCoins        int     `yaml:"fallbackCoins"`
	XPBase               float64 `yaml:"xpBase"`
	XPExponent           float64 `yaml:"xpExponent"`
	MaxLevel             int     `yaml:"maxLevel"`
}

// Tuning is the full gameplay configuration of a run
type Tuning struct {
	StageSeconds     float64 `yaml:"stageSeconds"` // 0 = endless
	PlayerBaseHealth float64 `yaml:"playerBaseHealth"`
	CoinsPerMinute   int     `yaml:"coinsPerMinute"` // survival reward per player

	Difficulty  DifficultyTuning  `yaml:"difficulty"`
	Progression ProgressionTuning `yaml:"progression"`
}

// DefaultTuning returns the built-in tuning used when no file is given
func DefaultTuning() Tuning {
	return Tuning{
		StageSeconds:     1200,
		PlayerBaseHealth: 100,
		CoinsPerMinute:   10,
		Difficulty: DifficultyTuning{
			LevelIntervalSeconds: 60,
			BaseSpawnInterval:    1.5,
			MinSpawnInterval:     0.35,
			SpawnDecayPerSecond:  0.0015,
			BaseMaxEnemies:       40,
			MaxEnemiesPerLevel:   5,
			BaseEnemyHealth:      10,
			BaseEnemyDamage:      5,
			BaseEnemySpeed:       2,
			BaseEnemyXP:          1,
			HealthPerLevel:       0.25,
			DamagePerLevel:       0.15,
			SpeedPerLevel:        0.03,
			XPPerLevel:           0.1,
			EliteHealthMult:      5,
			BossHealthMult:       30,
			EliteEvery:           25,
			BossEveryLevels:      5,
			Multiplayer: MultiplayerTuning{
				Enabled:                true,
				MaxEnemiesPerPlayer:    0.6,
				SpawnIntervalPerPlayer: 0.15,
				SpawnIntervalFloor:     0.4,
				HealthPerPlayer:        0.35,
				DamagePerPlayer:        0.1,
				XPPerPlayer:            0.25,
			},
			Enrage: EnrageTuning{
				StartTime:                900,
				HealthPerSecond:          0.01,
				DamagePerSecond:          0.005,
				SpeedPerSecond:           0.002,
				SpawnIntervalPerSecond:   0.002,
				MinSpawnInterval:         0.15,
				MaxEnemiesBonusPerSecond: 0.2,
			},
		},
		Progression: ProgressionTuning{
			MaxStatLevel:         5,
			MaxStatSlots:         6,
			MaxWeaponLevel:       8,
			MaxWeaponSlots:       3,
			OptionsPerRound:      4,
			FallbackHealFraction: 0.2,
			FallbackCoins:        25,
			XPBase:               5,
			XPExponent:           1.3,
			MaxLevel:             100,
		},
	}
}

// LoadTuning reads a YAML tuning file on top of the defaults
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning YAML: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("invalid tuning: %w", err)
	}
	t.clamp()
	return t, nil
}

// validate rejects values that cannot be clamped into something meaningful
func (t *Tuning) validate() error {
	d := t.Difficulty
	if d.BaseSpawnInterval <= 0 {
		return fmt.Errorf("difficulty.baseSpawnInterval must be > 0, got %v", d.BaseSpawnInterval)
	}
	if d.BaseEnemyHealth <= 0 {
		return fmt.Errorf("difficulty.baseEnemyHealth must be > 0, got %v", d.BaseEnemyHealth)
	}
	if t.StageSeconds < 0 {
		return fmt.Errorf("stageSeconds must be >= 0, got %v", t.StageSeconds)
	}
	return nil
}

// clamp pulls slot and level caps up to safe minimums
func (t *Tuning) clamp() {
	p := &t.Progression
	if p.MaxStatLevel < 1 {
		p.MaxStatLevel = 1
	}
	if p.MaxStatSlots < 1 {
		p.MaxStatSlots = 1
	}
	if p.MaxWeaponLevel < 1 {
		p.MaxWeaponLevel = 1
	}
	if p.MaxWeaponSlots < 1 {
		p.MaxWeaponSlots = 1
	}
	if p.OptionsPerRound < 1 {
		p.OptionsPerRound = 1
	}
	if p.OptionsPerRound > MaxOptionsPerRound {
		p.OptionsPerRound = MaxOptionsPerRound
	}
	if p.XPBase <= 0 {
		p.XPBase = 1
	}
	if p.XPExponent <= 0 {
		p.XPExponent = 1
	}
	if p.MaxLevel < 1 {
		p.MaxLevel = 1
	}
	if p.FallbackHealFraction < 0 {
		p.FallbackHealFraction = 0
	}

	d := &t.Difficulty
	if d.LevelIntervalSeconds <= 0 {
		d.LevelIntervalSeconds = 60
	}
	if d.MinSpawnInterval <= 0 {
		d.MinSpawnInterval = 0.05
	}
	if d.Enrage.MinSpawnInterval <= 0 {
		d.Enrage.MinSpawnInterval = d.MinSpawnInterval
	}
	if d.Multiplayer.SpawnIntervalFloor <= 0 {
		d.Multiplayer.SpawnIntervalFloor = 0.1
	}
	if d.BaseMaxEnemies < 1 {
		d.BaseMaxEnemies = 1
	}
	if t.PlayerBaseHealth <= 0 {
		t.PlayerBaseHealth = 100
	}
}
