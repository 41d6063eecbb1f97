package main

import "sync/atomic"

// SpawnParams is the parameter set handed to the enemy spawner. It is
// replaced wholesale every tick, never edited in place.
type SpawnParams struct {
	SpawnInterval   float64 `json:"iv" msgpack:"iv"`
	MaxEnemies      int     `json:"max" msgpack:"max"`
	EnemyMoveSpeed  float64 `json:"spd" msgpack:"spd"`
	EnemyDamage     float64 `json:"dmg" msgpack:"dmg"`
	EnemyMaxHealth  float64 `json:"hp" msgpack:"hp"`
	EnemyXPReward   float64 `json:"xp" msgpack:"xp"`
	EliteHealthMult float64 `json:"elite" msgpack:"elite"`
	BossHealthMult  float64 `json:"boss" msgpack:"boss"`
	MonsterLevel    int     `json:"lvl" msgpack:"lvl"`
}

// EnemyKind tags a spawn order
type EnemyKind int

const (
	EnemyNormal EnemyKind = 0
	EnemyElite  EnemyKind = 1
	EnemyBoss   EnemyKind = 2
)

// SpawnOrder asks the client-side spawner for Count enemies with these stats
type SpawnOrder struct {
	Kind   EnemyKind `json:"k" msgpack:"k"`
	Count  int       `json:"n" msgpack:"n"`
	Health float64   `json:"hp" msgpack:"hp"`
	Damage float64   `json:"dmg" msgpack:"dmg"`
	Speed  float64   `json:"spd" msgpack:"spd"`
	XP     float64   `json:"xp" msgpack:"xp"`
}

// EnemyDirector paces enemy spawns from the published SpawnParams.
// Publish is called by the scaler, Tick by the game loop; Params may be
// read from any goroutine.
type EnemyDirector struct {
	params atomic.Pointer[SpawnParams]

	eliteEvery      int
	bossEveryLevels int

	timer    float64
	spawned  int
	alive    int
	lastBoss int // monster level of the last boss spawn
	kills    int
}

// NewEnemyDirector creates a director with no parameters published yet
func NewEnemyDirector(cfg DifficultyTuning) *EnemyDirector {
	return &EnemyDirector{
		eliteEvery:      cfg.EliteEvery,
		bossEveryLevels: cfg.BossEveryLevels,
	}
}

// Publish replaces the current parameter set
func (d *EnemyDirector) Publish(p SpawnParams) {
	d.params.Store(&p)
}

// Params returns the last published set, or nil before the first tick
func (d *EnemyDirector) Params() *SpawnParams {
	return d.params.Load()
}

// Tick advances the spawn timer by dt simulated seconds and returns the
// orders due. It never lets alive enemies exceed MaxEnemies.
func (d *EnemyDirector) Tick(dt float64) []SpawnOrder {
	p := d.params.Load()
	if p == nil || dt <= 0 {
		return nil
	}
	var orders []SpawnOrder

	if d.bossEveryLevels > 0 && p.MonsterLevel >= d.lastBoss+d.bossEveryLevels &&
		p.MonsterLevel%d.bossEveryLevels == 0 {
		d.lastBoss = p.MonsterLevel
		orders = append(orders, d.order(p, EnemyBoss, 1))
	}

	if p.SpawnInterval <= 0 {
		return orders
	}
	d.timer += dt
	due := 0
	for d.timer >= p.SpawnInterval {
		d.timer -= p.SpawnInterval
		due++
	}
	room := p.MaxEnemies - d.alive
	if due > room {
		due = room
	}
	if due <= 0 {
		return orders
	}

	normal := 0
	for i := 0; i < due; i++ {
		d.spawned++
		if d.eliteEvery > 0 && d.spawned%d.eliteEvery == 0 {
			orders = append(orders, d.order(p, EnemyElite, 1))
			continue
		}
		normal++
	}
	if normal > 0 {
		orders = append(orders, d.order(p, EnemyNormal, normal))
	}
	return orders
}

func (d *EnemyDirector) order(p *SpawnParams, kind EnemyKind, n int) SpawnOrder {
	hp := p.EnemyMaxHealth
	switch kind {
	case EnemyElite:
		hp *= p.EliteHealthMult
	case EnemyBoss:
		hp *= p.BossHealthMult
	}
	d.alive += n
	return SpawnOrder{
		Kind:   kind,
		Count:  n,
		Health: hp,
		Damage: p.EnemyDamage,
		Speed:  p.EnemyMoveSpeed,
		XP:     p.EnemyXPReward,
	}
}

// ReportKills lowers the alive count. Reports beyond what is alive are capped.
func (d *EnemyDirector) ReportKills(n int) int {
	if n <= 0 {
		return 0
	}
	if n > d.alive {
		n = d.alive
	}
	d.alive -= n
	d.kills += n
	return n
}

// Alive returns the number of enemies spawned and not yet reported killed
func (d *EnemyDirector) Alive() int {
	return d.alive
}

// Kills returns the kills reported this run
func (d *EnemyDirector) Kills() int {
	return d.kills
}

// Reset forgets everything spawned so far
func (d *EnemyDirector) Reset() {
	d.timer = 0
	d.spawned = 0
	d.alive = 0
	d.lastBoss = 0
	d.kills = 0
	d.params.Store(nil)
}
