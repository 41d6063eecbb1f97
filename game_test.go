package main

import (
	"sync"
	"testing"
	"time"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// of returns the captured envelopes of one message type
func (m *mockBroadcaster) of(msgType string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == msgType {
			out = append(out, env)
		}
	}
	return out
}

// fakeLedger records credits
type fakeLedger struct {
	credits chan [2]int64
}

func (l *fakeLedger) Credit(accountID int64, amount int) (int, error) {
	l.credits <- [2]int64{accountID, int64(amount)}
	return amount, nil
}

func (l *fakeLedger) Balance(int64) (int, error) { return 0, nil }

func newTestGame(t *testing.T) *Game {
	t.Helper()
	return NewGame(GameOptions{SessionID: "test", Seed: 42})
}

// joinWithClient adds a player with a mock client attached
func joinWithClient(g *Game, name string) (*Player, *mockBroadcaster) {
	p := g.AddPlayer(name, CharVanguard, 0)
	m := &mockBroadcaster{}
	g.SetClient(p.ID, m)
	return p, m
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := newTestGame(t)
	p := g.AddPlayer("TestPilot", CharRanger, 0)
	if p.Name != "TestPilot" {
		t.Errorf("expected name TestPilot, got %s", p.Name)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
	s, ok := g.book.Lookup(p.ID)
	if !ok {
		t.Fatal("player should have an upgrade state")
	}
	if !s.Weapons[WeaponRailgun].Unlocked {
		t.Error("Ranger should start with the railgun")
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
	if _, ok := g.book.Lookup(p.ID); ok {
		t.Error("upgrade state should be destroyed with the player")
	}
}

func TestGameInvalidCharacterFallsBack(t *testing.T) {
	g := newTestGame(t)
	p := g.AddPlayer("Odd", CharacterID(99), 0)
	if p.Character != CharVanguard {
		t.Errorf("expected Vanguard fallback, got %d", p.Character)
	}
}

func TestGameSessionFull(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < maxPlayersPerSession; i++ {
		if g.AddPlayer("P", CharVanguard, 0) == nil {
			t.Fatalf("player %d should fit", i)
		}
	}
	if g.AddPlayer("Extra", CharVanguard, 0) != nil {
		t.Error("session should be full")
	}
}

func TestGameClockAdvancesWhileUnfrozen(t *testing.T) {
	g := newTestGame(t)
	joinWithClient(g, "Runner")

	for i := 0; i < TickRate; i++ {
		g.update()
	}
	if e := g.clock.Elapsed(); e < 0.99 || e > 1.01 {
		t.Errorf("expected ~1s elapsed after %d ticks, got %v", TickRate, e)
	}
	if g.SpawnParams() == nil {
		t.Error("spawn params should be published once the clock runs")
	}
}

func TestGameLevelUpOpensRoundForEveryone(t *testing.T) {
	g := newTestGame(t)
	p1, m1 := joinWithClient(g, "A")
	p2, m2 := joinWithClient(g, "B")

	g.HandleXP(p1.ID, 5)
	g.update()

	if g.Level() != 2 {
		t.Fatalf("expected team level 2, got %d", g.Level())
	}
	round := g.OpenRound()
	if round != 1 {
		t.Fatalf("expected round 1 open, got %d", round)
	}
	if !g.clock.Frozen() {
		t.Error("an open round should freeze the session")
	}
	for _, m := range []*mockBroadcaster{m1, m2} {
		opts := m.of(MsgOptions)
		if len(opts) != 1 {
			t.Fatalf("expected one options message, got %d", len(opts))
		}
		om := opts[0].Data.(OptionsMsg)
		if om.Round != round || !om.Reroll || len(om.Titles) != len(om.Descriptions) {
			t.Errorf("unexpected options: %+v", om)
		}
		if len(m.of(MsgLevelUp)) != 1 {
			t.Error("everyone should hear the level up")
		}
	}

	before := g.clock.Elapsed()
	before1 := g.book.State(p1.ID).Snapshot()

	g.HandleSelect(p1.ID, round, 0)
	g.update()
	if g.OpenRound() != round {
		t.Fatal("round should wait for the second player")
	}
	if len(m1.of(MsgHide)) != 1 {
		t.Error("accepted selection should hide the panel")
	}
	if g.book.State(p1.ID).Snapshot() != before1 {
		t.Error("selections apply only when the round closes")
	}
	if g.clock.Elapsed() != before {
		t.Error("clock must not advance while the round is open")
	}

	g.HandleSelect(p2.ID, round, 0)
	g.update()
	if g.OpenRound() != 0 {
		t.Fatal("round should close once everyone answered")
	}
	if g.clock.Frozen() {
		t.Error("closing the round should unfreeze the session")
	}
	if g.book.State(p1.ID).Snapshot() == before1 {
		t.Error("first player's selection should be applied")
	}
	if len(m2.of(MsgSync)) < 2 {
		t.Error("clients should get a sync after the round")
	}
}

func TestGameStaleSelectionIgnored(t *testing.T) {
	g := newTestGame(t)
	p, m := joinWithClient(g, "Solo")

	g.HandleXP(p.ID, 5)
	g.update()
	round := g.OpenRound()

	g.HandleSelect(p.ID, round+1, 0)
	g.HandleSelect(p.ID, round, 99)
	g.update()
	if g.OpenRound() != round {
		t.Fatal("stale or out-of-range selections must not close the round")
	}
	if len(m.of(MsgHide)) != 0 {
		t.Error("rejected selection should not hide the panel")
	}

	g.HandleSelect(p.ID, round, 0)
	g.update()
	if g.OpenRound() != 0 {
		t.Error("valid selection should close the round")
	}
}

func TestGameRerollOncePerRound(t *testing.T) {
	g := newTestGame(t)
	p, m := joinWithClient(g, "Solo")

	g.HandleXP(p.ID, 5)
	g.update()
	round := g.OpenRound()

	g.HandleReroll(p.ID, round)
	g.HandleReroll(p.ID, round)
	g.update()

	opts := m.of(MsgOptions)
	if len(opts) != 2 {
		t.Fatalf("expected original plus one reroll, got %d options messages", len(opts))
	}
	if opts[1].Data.(OptionsMsg).Reroll {
		t.Error("rerolled options should not offer another reroll")
	}
}

func TestGameQueuedLevelUps(t *testing.T) {
	g := newTestGame(t)
	p, _ := joinWithClient(g, "Solo")

	// enough for level 3 in one report
	g.HandleXP(p.ID, 18)
	g.update()
	if g.Level() != 3 {
		t.Fatalf("expected level 3, got %d", g.Level())
	}
	if g.OpenRound() != 1 {
		t.Fatalf("expected round 1, got %d", g.OpenRound())
	}

	g.HandleSelect(p.ID, 1, 0)
	g.update()
	if g.OpenRound() != 2 {
		t.Fatalf("queued level up should open round 2, got %d", g.OpenRound())
	}

	g.HandleSelect(p.ID, 2, 0)
	g.update()
	if g.OpenRound() != 0 {
		t.Error("no more rounds should be queued")
	}
}

func TestGameJoinMidRoundExcluded(t *testing.T) {
	g := newTestGame(t)
	p1, _ := joinWithClient(g, "First")

	g.HandleXP(p1.ID, 5)
	g.update()
	round := g.OpenRound()

	p2, m2 := joinWithClient(g, "Late")
	if len(m2.of(MsgOptions)) != 0 {
		t.Error("late joiner should not get this round's options")
	}
	g.HandleSelect(p2.ID, round, 0)
	g.update()
	if g.OpenRound() != round {
		t.Error("late joiner cannot answer the open round")
	}

	g.HandleSelect(p1.ID, round, 0)
	g.update()
	if g.OpenRound() != 0 {
		t.Error("round should close on the original participant's answer")
	}
}

func TestGameRoundOpensBeforeClientAttached(t *testing.T) {
	g := newTestGame(t)
	p1, _ := joinWithClient(g, "First")
	p2 := g.AddPlayer("Connecting", CharMystic, 0)

	// a tick lands between AddPlayer and SetClient
	g.HandleXP(p1.ID, 5)
	g.update()
	round := g.OpenRound()
	if round == 0 || !g.rounds.IsPending(p2.ID) {
		t.Fatal("the round should count the registered player")
	}

	m2 := &mockBroadcaster{}
	g.SetClient(p2.ID, m2)
	opts := m2.of(MsgOptions)
	if len(opts) != 1 {
		t.Fatalf("options should be sent on attach, got %d", len(opts))
	}
	msg := opts[0].Data.(OptionsMsg)
	if msg.Round != round || len(msg.Titles) == 0 || !msg.Reroll {
		t.Errorf("unexpected options %+v", msg)
	}

	g.HandleSelect(p1.ID, round, 0)
	g.HandleSelect(p2.ID, round, 0)
	g.update()
	if g.OpenRound() != 0 {
		t.Error("round should close once both players answered")
	}
}

func TestGameFullInboxDrops(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < inboxSize+5; i++ {
		g.HandleSelect("p", 1, 0)
	}
	if len(g.inbox) != inboxSize {
		t.Errorf("expected a full inbox of %d, got %d", inboxSize, len(g.inbox))
	}
	if cmdSelect.String() != "select" || cmdRestart.String() != "restart" || cmdKind(42).String() != "unknown" {
		t.Error("command kinds should name themselves in logs")
	}
}

func TestGameRemovePlayerClosesRound(t *testing.T) {
	g := newTestGame(t)
	p1, _ := joinWithClient(g, "Stays")
	p2, _ := joinWithClient(g, "Leaves")

	g.HandleXP(p1.ID, 5)
	g.update()
	round := g.OpenRound()
	before := g.book.State(p1.ID).Snapshot()

	g.HandleSelect(p1.ID, round, 0)
	g.update()
	g.RemovePlayer(p2.ID)

	if g.OpenRound() != 0 {
		t.Fatal("dropping the last pending player should close the round")
	}
	if g.clock.Frozen() {
		t.Error("session should be unfrozen")
	}
	if g.book.State(p1.ID).Snapshot() == before {
		t.Error("remaining selection should be applied")
	}
}

func TestGameHitIgnoredWhileFrozen(t *testing.T) {
	g := newTestGame(t)
	p, _ := joinWithClient(g, "Solo")

	g.HandleXP(p.ID, 5)
	g.HandleHit(p.ID, 30)
	g.update()
	if p.HP != p.MaxHP {
		t.Errorf("damage while frozen should be ignored, hp %v/%v", p.HP, p.MaxHP)
	}

	g.HandleSelect(p.ID, g.OpenRound(), 0)
	g.update()
	g.HandleHit(p.ID, 30)
	g.update()
	// a regen pick may heal a sliver in the same tick
	if p.HP > p.MaxHP-29 {
		t.Errorf("expected 30 damage after the round, hp %v/%v", p.HP, p.MaxHP)
	}
}

func TestGameWipeEndsRunAndRestart(t *testing.T) {
	g := newTestGame(t)
	p, m := joinWithClient(g, "Doomed")

	g.HandleDied(p.ID)
	g.update()

	if g.mode.Phase() != PhaseGameOver {
		t.Fatalf("expected game over, got %s", g.mode.Phase())
	}
	phases := m.of(MsgPhase)
	if len(phases) != 1 || phases[0].Data.(PhaseMsg).Phase != "game_over" {
		t.Fatalf("expected one game_over phase message, got %+v", phases)
	}
	if len(m.of(MsgPlayerDied)) != 1 {
		t.Error("death should be announced")
	}

	// xp after the run ended is ignored
	g.HandleXP(p.ID, 100)
	g.update()
	if g.Level() != 1 {
		t.Errorf("xp after the run should not level, got %d", g.Level())
	}

	g.HandleRestart(p.ID)
	g.update()
	if !g.mode.Running() {
		t.Fatal("restart should start a new run")
	}
	if !p.Alive || p.HP != p.MaxHP {
		t.Error("restart should revive players")
	}
	if g.clock.Elapsed() > TickDuration.Seconds()+1e-9 {
		t.Errorf("restart should reset the clock, got %v", g.clock.Elapsed())
	}
}

func TestGameRestartIgnoredWhilePlaying(t *testing.T) {
	g := newTestGame(t)
	p, m := joinWithClient(g, "Eager")
	g.update()
	g.HandleRestart(p.ID)
	g.update()
	if len(m.of(MsgPhase)) != 0 {
		t.Error("restart should be ignored during a run")
	}
}

func TestGameStageCompleteCreditsCoins(t *testing.T) {
	tuning := DefaultTuning()
	tuning.StageSeconds = 61
	tuning.CoinsPerMinute = 10
	ledger := &fakeLedger{credits: make(chan [2]int64, 4)}
	g := NewGame(GameOptions{SessionID: "stage", Tuning: tuning, Seed: 1, Ledger: ledger})

	p := g.AddPlayer("Account", CharVanguard, 7)
	m := &mockBroadcaster{}
	g.SetClient(p.ID, m)
	g.AddPlayer("Guest", CharMystic, 0)

	g.clock.elapsed = 60.99
	g.update()

	if g.mode.Phase() != PhaseStageComplete {
		t.Fatalf("expected stage complete, got %s", g.mode.Phase())
	}
	pm := m.of(MsgPhase)[0].Data.(PhaseMsg)
	if pm.Coins != 10 {
		t.Errorf("expected 10 survival coins, got %d", pm.Coins)
	}

	select {
	case c := <-ledger.credits:
		if c[0] != 7 || c[1] != 10 {
			t.Errorf("expected 10 coins to account 7, got %v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("account coins should be credited")
	}
	select {
	case c := <-ledger.credits:
		t.Errorf("guests have no wallet, got credit %v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGameBroadcastState(t *testing.T) {
	g := newTestGame(t)
	_, m := joinWithClient(g, "Watcher")

	for i := 0; i < BroadcastEvery; i++ {
		g.update()
	}
	states := m.of(MsgState)
	if len(states) != 1 {
		t.Fatalf("expected 1 state frame, got %d", len(states))
	}
	gs := states[0].Data.(GameState)
	if len(gs.Players) != 1 || gs.Level != 1 || gs.Phase != int(PhasePlaying) {
		t.Errorf("unexpected state: %+v", gs)
	}
}

func TestGameClampsReportedAmounts(t *testing.T) {
	g := newTestGame(t)
	p, _ := joinWithClient(g, "Cheater")

	g.HandleXP(p.ID, -50)
	g.HandleHit(p.ID, -10)
	g.update()
	if g.Level() != 1 || p.HP != p.MaxHP {
		t.Error("negative reports should have no effect")
	}
}

func TestGameRunAndStop(t *testing.T) {
	g := newTestGame(t)
	g.AddPlayer("Loop", CharVanguard, 0)
	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()
	time.Sleep(3 * TickDuration)
	g.Stop()
	g.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return after Stop")
	}
}
