package main

import "testing"

func testParams() SpawnParams {
	return SpawnParams{
		SpawnInterval:   1,
		MaxEnemies:      10,
		EnemyMoveSpeed:  2,
		EnemyDamage:     5,
		EnemyMaxHealth:  10,
		EnemyXPReward:   1,
		EliteHealthMult: 5,
		BossHealthMult:  30,
		MonsterLevel:    1,
	}
}

func countKind(orders []SpawnOrder, kind EnemyKind) int {
	n := 0
	for _, o := range orders {
		if o.Kind == kind {
			n += o.Count
		}
	}
	return n
}

func TestDirectorNoParams(t *testing.T) {
	d := NewEnemyDirector(DefaultTuning().Difficulty)
	if d.Params() != nil {
		t.Error("no params before the first publish")
	}
	if orders := d.Tick(5); orders != nil {
		t.Errorf("nothing spawns without params, got %v", orders)
	}
}

func TestDirectorSpawnsOnInterval(t *testing.T) {
	cfg := DefaultTuning().Difficulty
	cfg.EliteEvery = 0
	d := NewEnemyDirector(cfg)
	d.Publish(testParams())

	if orders := d.Tick(0.5); len(orders) != 0 {
		t.Errorf("half an interval spawns nothing, got %v", orders)
	}
	orders := d.Tick(2.6)
	if countKind(orders, EnemyNormal) != 3 {
		t.Errorf("3.1s at 1s interval should spawn 3, got %v", orders)
	}
	if d.Alive() != 3 {
		t.Errorf("expected 3 alive, got %d", d.Alive())
	}
	if orders[0].Health != 10 || orders[0].Damage != 5 {
		t.Errorf("order should carry published stats: %+v", orders[0])
	}
}

func TestDirectorRespectsCap(t *testing.T) {
	cfg := DefaultTuning().Difficulty
	cfg.EliteEvery = 0
	d := NewEnemyDirector(cfg)
	d.Publish(testParams())

	d.Tick(50)
	if d.Alive() != 10 {
		t.Fatalf("alive should stop at the cap, got %d", d.Alive())
	}
	if orders := d.Tick(5); len(orders) != 0 {
		t.Errorf("a full field spawns nothing, got %v", orders)
	}

	if got := d.ReportKills(4); got != 4 {
		t.Errorf("expected 4 kills, got %d", got)
	}
	d.Tick(10)
	if d.Alive() != 10 {
		t.Errorf("kills free room up to the cap, got %d alive", d.Alive())
	}
}

func TestDirectorEliteCadence(t *testing.T) {
	cfg := DefaultTuning().Difficulty
	cfg.EliteEvery = 4
	d := NewEnemyDirector(cfg)
	p := testParams()
	p.MaxEnemies = 100
	d.Publish(p)

	orders := d.Tick(12)
	if countKind(orders, EnemyElite) != 3 || countKind(orders, EnemyNormal) != 9 {
		t.Errorf("every 4th spawn is an elite: %v", orders)
	}
	for _, o := range orders {
		if o.Kind == EnemyElite && o.Health != 50 {
			t.Errorf("elite health should be multiplied, got %v", o.Health)
		}
	}
}

func TestDirectorBossEveryFiveLevels(t *testing.T) {
	cfg := DefaultTuning().Difficulty
	d := NewEnemyDirector(cfg)
	p := testParams()
	p.SpawnInterval = 0

	for lvl := 1; lvl <= 11; lvl++ {
		p.MonsterLevel = lvl
		d.Publish(p)
		bosses := countKind(d.Tick(1), EnemyBoss)
		bosses += countKind(d.Tick(1), EnemyBoss) // once per level
		want := 0
		if lvl == 5 || lvl == 10 {
			want = 1
		}
		if bosses != want {
			t.Errorf("level %d: expected %d bosses, got %d", lvl, want, bosses)
		}
	}
}

func TestDirectorReportKillsCapped(t *testing.T) {
	d := NewEnemyDirector(DefaultTuning().Difficulty)
	d.Publish(testParams())
	d.Tick(2)

	if got := d.ReportKills(-1); got != 0 {
		t.Errorf("negative kills are ignored, got %d", got)
	}
	if got := d.ReportKills(50); got != 2 {
		t.Errorf("kills cap at what is alive, got %d", got)
	}
	if d.Alive() != 0 || d.Kills() != 2 {
		t.Errorf("expected 0 alive and 2 kills, got %d/%d", d.Alive(), d.Kills())
	}

	d.Reset()
	if d.Params() != nil || d.Kills() != 0 {
		t.Error("reset should clear params and totals")
	}
}

func TestDirectorPublishReplaces(t *testing.T) {
	d := NewEnemyDirector(DefaultTuning().Difficulty)
	p := testParams()
	d.Publish(p)
	first := d.Params()

	p.EnemyDamage = 99
	if d.Params().EnemyDamage != 5 {
		t.Error("published params must not alias the caller's value")
	}
	d.Publish(p)
	if d.Params() == first || d.Params().EnemyDamage != 99 {
		t.Error("publish should swap in a new set")
	}
}
