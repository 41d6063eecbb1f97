package main

import (
	"math/rand/v2"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// scriptedChooser rerolls on its first call if asked to and then picks index
type scriptedChooser struct {
	index      int
	wantReroll bool
	offered    []bool // rerollAvailable on each call
}

func (c *scriptedChooser) Choose(_ []UpgradeOption, _ *UpgradeState, rerollAvailable bool) (int, bool) {
	c.offered = append(c.offered, rerollAvailable)
	if c.wantReroll && rerollAvailable {
		return 0, true
	}
	return c.index, false
}

func newTestLocalRun(t *testing.T, tn Tuning, chooser Chooser) (*LocalRun, *LocalWallet) {
	t.Helper()
	w, err := NewLocalWallet(nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewLocalRun(tn, CharVanguard, 1, w, chooser, rand.New(rand.NewPCG(1, 2))), w
}

func pickCount(s *UpgradeState) int {
	n := 0
	for _, lvl := range s.StatLevels {
		n += lvl
	}
	for _, w := range s.Weapons {
		n += w.Level
	}
	return n
}

func TestLocalRunResolvesRoundsSynchronously(t *testing.T) {
	lr, _ := newTestLocalRun(t, DefaultTuning(), &scriptedChooser{})
	before := pickCount(lr.State())

	levels := lr.AddXP(18)
	if len(levels) != 2 || lr.Level() != 3 {
		t.Fatalf("expected two level-ups, got %v", levels)
	}
	if got := pickCount(lr.State()) - before; got != 2 {
		t.Errorf("each level-up applies one pick, got %d", got)
	}
	if lr.rounds.IsOpen() || lr.clock.Frozen() {
		t.Error("no round may be left open after AddXP returns")
	}
	if lr.rounds.RoundID() != 2 {
		t.Errorf("expected 2 rounds, got %d", lr.rounds.RoundID())
	}
}

func TestLocalRunRerollOnce(t *testing.T) {
	c := &scriptedChooser{wantReroll: true, index: 1}
	lr, _ := newTestLocalRun(t, DefaultTuning(), c)
	lr.AddXP(6)

	if len(c.offered) != 2 || !c.offered[0] || c.offered[1] {
		t.Errorf("reroll offered once then spent, got %v", c.offered)
	}
}

func TestLocalRunBadIndexFallsBack(t *testing.T) {
	lr, _ := newTestLocalRun(t, DefaultTuning(), &scriptedChooser{index: 99})
	before := pickCount(lr.State())
	lr.AddXP(6)
	if pickCount(lr.State()) != before+1 || lr.rounds.IsOpen() {
		t.Error("an out-of-range choice falls back to the first option")
	}
}

func TestLocalRunStageCompleteCreditsWallet(t *testing.T) {
	tn := DefaultTuning()
	tn.StageSeconds = 120
	lr, w := newTestLocalRun(t, tn, &scriptedChooser{})

	ended := false
	for i := 0; i < 10000 && !ended; i++ {
		_, ended = lr.Step(TickDuration.Seconds())
	}
	if !ended || lr.Phase() != PhaseStageComplete {
		t.Fatalf("run should complete the stage, phase %s", lr.Phase())
	}
	if bal, _ := w.Balance(LocalAccountID); bal != 20 {
		t.Errorf("two minutes at 10 coins per minute, got %d", bal)
	}

	// a finished run neither steps nor settles again
	if _, ended := lr.Step(1); !ended {
		t.Error("ended run should report ended")
	}
	if bal, _ := w.Balance(LocalAccountID); bal != 20 {
		t.Errorf("settle must run once, got %d", bal)
	}
}

func TestLocalRunWipe(t *testing.T) {
	lr, w := newTestLocalRun(t, DefaultTuning(), &scriptedChooser{})
	if !lr.Hit(1000) {
		t.Fatal("lethal hit should kill")
	}
	if _, ended := lr.Step(TickDuration.Seconds()); !ended || lr.Phase() != PhaseGameOver {
		t.Errorf("a dead solo player ends the run, phase %s", lr.Phase())
	}
	if lr.AddXP(100) != nil {
		t.Error("no experience after the run ended")
	}
	if bal, _ := w.Balance(LocalAccountID); bal != 0 {
		t.Errorf("nothing survived, nothing earned; got %d", bal)
	}
}

func TestLocalRunSpawnsAndScales(t *testing.T) {
	lr, _ := newTestLocalRun(t, DefaultTuning(), &scriptedChooser{})
	var spawned int
	for i := 0; i < 30*10; i++ {
		orders, _ := lr.Step(TickDuration.Seconds())
		for _, o := range orders {
			spawned += o.Count
		}
	}
	if spawned == 0 || lr.director.Alive() != spawned {
		t.Errorf("expected spawns tracked as alive, spawned %d alive %d", spawned, lr.director.Alive())
	}
	if lr.Difficulty().Spawn.MaxEnemies == 0 {
		t.Error("difficulty should be computed while stepping")
	}
	if k := lr.ReportKills(3); k != 3 || lr.Player().Kills != 3 {
		t.Errorf("kills should count for the player, got %d/%d", k, lr.Player().Kills)
	}
}

func TestSimulateRunEnds(t *testing.T) {
	tn := DefaultTuning()
	tn.StageSeconds = 180
	w, _ := NewLocalWallet(nil)
	lr := SimulateRun(tn, 180, 2, w, 7)
	if lr.Phase() == PhasePlaying {
		t.Errorf("simulated run should end, at %.1fs", lr.Elapsed())
	}
	if lr.Level() < 1 {
		t.Error("level must stay valid")
	}
}

func TestLocalWalletInMemory(t *testing.T) {
	w, err := NewLocalWallet(nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Credit(LocalAccountID, 10)
	w.Credit(LocalAccountID, -4)
	bal, err := w.Credit(LocalAccountID, 5)
	if err != nil || bal != 15 {
		t.Errorf("expected 15, got %d (%v)", bal, err)
	}
}

func TestLocalWalletPersists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", home)

	m, err := gdata.Open(gdata.Config{AppName: "expedition_wallet_test"})
	if err != nil {
		t.Fatalf("open gdata: %v", err)
	}
	w1, err := NewLocalWallet(m)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w1.Credit(LocalAccountID, 42); err != nil {
		t.Fatalf("credit: %v", err)
	}

	w2, err := NewLocalWallet(m)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if bal, _ := w2.Balance(LocalAccountID); bal != 42 {
		t.Errorf("expected 42 coins after reload, got %d", bal)
	}
}
