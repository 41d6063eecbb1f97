package main

import (
	"log"
	"math"
	"math/rand/v2"
)

const localPlayerID = "local"

// Chooser picks an option for an offline round. Returning reroll=true asks
// for a fresh set first; it is ignored once the reroll is spent.
type Chooser interface {
	Choose(opts []UpgradeOption, s *UpgradeState, rerollAvailable bool) (index int, reroll bool)
}

// RandomChooser picks uniformly and rerolls with the given probability
type RandomChooser struct {
	Rng          *rand.Rand
	RerollChance float64
}

func (c RandomChooser) Choose(opts []UpgradeOption, _ *UpgradeState, rerollAvailable bool) (int, bool) {
	if rerollAvailable && c.Rng.Float64() < c.RerollChance {
		return 0, true
	}
	return c.Rng.IntN(len(opts)), false
}

// LocalRun is an offline single-player run. Rounds resolve synchronously:
// a level-up opens the round, the chooser picks and the round closes
// before AddXP returns. Coins go to the local wallet when the run ends.
type LocalRun struct {
	tuning Tuning
	player *Player
	party  int // party size the difficulty curve scales for

	book     *UpgradeBook
	gen      *OptionGenerator
	rounds   *RoundCoordinator
	scaler   *DifficultyScaler
	director *EnemyDirector
	clock    SessionClock
	mode     *ModeController
	progress TeamProgress
	diff     DifficultyState

	wallet  CoinLedger
	chooser Chooser
	shown   []UpgradeOption
	rolled  bool // reroll offered with the current options
	settled bool
}

// NewLocalRun starts an offline run. party below 1 counts as 1.
func NewLocalRun(t Tuning, char CharacterID, party int, wallet CoinLedger, chooser Chooser, rng *rand.Rand) *LocalRun {
	if party < 1 {
		party = 1
	}
	lr := &LocalRun{
		tuning:   t,
		party:    party,
		book:     NewUpgradeBook(),
		gen:      NewOptionGenerator(t.Progression, rng),
		scaler:   NewDifficultyScaler(t.Difficulty),
		director: NewEnemyDirector(t.Difficulty),
		mode:     NewModeController(t.StageSeconds),
		progress: NewTeamProgress(t.Progression),
		wallet:   wallet,
		chooser:  chooser,
	}
	lr.rounds = NewRoundCoordinator(localHost{lr})

	if !ValidCharacter(char) {
		char = CharVanguard
	}
	lr.player = NewPlayer(localPlayerID, "Survivor", char, t.PlayerBaseHealth)
	lr.player.AccountID = LocalAccountID
	s := lr.book.State(localPlayerID)
	s.ApplyCharacter(char)
	lr.player.SyncMaxHP(s)
	PushAttack(&lr.player.Attack, s)
	return lr
}

// Player returns the local player
func (lr *LocalRun) Player() *Player { return lr.player }

// State returns the player's build
func (lr *LocalRun) State() *UpgradeState { return lr.book.State(localPlayerID) }

// Level returns the current level
func (lr *LocalRun) Level() int { return lr.progress.Level }

// Elapsed returns unfrozen run time
func (lr *LocalRun) Elapsed() float64 { return lr.clock.Elapsed() }

// Difficulty returns the state computed on the last step
func (lr *LocalRun) Difficulty() DifficultyState { return lr.diff }

// Phase returns the run phase
func (lr *LocalRun) Phase() RunPhase { return lr.mode.Phase() }

// Step advances the run by dt seconds and returns the spawn orders issued.
// It reports true once the run has ended.
func (lr *LocalRun) Step(dt float64) ([]SpawnOrder, bool) {
	if !lr.mode.Running() {
		return nil, true
	}
	var orders []SpawnOrder
	if adv := lr.clock.Advance(dt); adv > 0 {
		lr.diff = lr.scaler.Compute(lr.clock.Elapsed(), lr.party)
		lr.director.Publish(lr.diff.Spawn)
		orders = lr.director.Tick(adv)
		lr.player.Regen(adv, lr.State().RegenPerSecond)
	}
	alive := 0
	if lr.player.Alive {
		alive = 1
	}
	if lr.mode.Evaluate(lr.clock.Elapsed(), alive, 1) {
		lr.settle()
		return orders, true
	}
	return orders, false
}

// AddXP grants experience and resolves every round it triggers
func (lr *LocalRun) AddXP(xp float64) []int {
	if !lr.mode.Running() || !lr.player.Alive || math.IsNaN(xp) || xp <= 0 {
		return nil
	}
	levels := lr.progress.Add(xp * lr.State().XPGainMult)
	for range levels {
		lr.resolveRound()
	}
	return levels
}

// ReportKills records kills against the live enemy count
func (lr *LocalRun) ReportKills(n int) int {
	k := lr.director.ReportKills(n)
	lr.player.Kills += k
	return k
}

// Hit applies enemy damage to the player
func (lr *LocalRun) Hit(dmg float64) bool {
	if lr.clock.Frozen() || !lr.mode.Running() {
		return false
	}
	return lr.player.TakeDamage(dmg)
}

func (lr *LocalRun) resolveRound() {
	if !lr.rounds.BeginRound([]string{localPlayerID}) {
		return
	}
	roundID := lr.rounds.RoundID()
	for lr.rounds.IsOpen() {
		idx, reroll := lr.chooser.Choose(lr.shown, lr.State(), lr.rolled)
		if reroll && lr.rounds.Reroll(localPlayerID, roundID) {
			continue
		}
		if !lr.rounds.Submit(localPlayerID, idx, roundID) {
			lr.rounds.Submit(localPlayerID, 0, roundID)
		}
	}
}

// settle pays the run's coins into the wallet once
func (lr *LocalRun) settle() {
	if lr.settled {
		return
	}
	lr.settled = true
	lr.player.Coins += int(lr.mode.EndedAt()/60) * lr.tuning.CoinsPerMinute
	if lr.wallet == nil || lr.player.Coins <= 0 {
		return
	}
	balance, err := lr.wallet.Credit(LocalAccountID, lr.player.Coins)
	if err != nil {
		log.Printf("local: credit %d coins: %v", lr.player.Coins, err)
		return
	}
	log.Printf("local: +%d coins, wallet now %d", lr.player.Coins, balance)
}

type localHost struct {
	lr *LocalRun
}

func (h localHost) GenerateFor(clientID string) []UpgradeOption {
	return h.lr.gen.GenerateOptions(h.lr.book.State(clientID), h.lr.progress.Level)
}

func (h localHost) ShowOptions(_ string, _ int, opts []UpgradeOption, rerollAvailable bool) {
	h.lr.shown = opts
	h.lr.rolled = rerollAvailable
}

func (h localHost) HideOptions(string, int) {
	h.lr.shown = nil
}

func (h localHost) ApplySelection(clientID string, opt UpgradeOption) {
	s := h.lr.book.State(clientID)
	opt.Apply(s, playerEffects{h.lr.player})
	h.lr.player.SyncMaxHP(s)
	PushAttack(&h.lr.player.Attack, s)
}

func (h localHost) Freeze()   { h.lr.clock.Freeze() }
func (h localHost) Unfreeze() { h.lr.clock.Unfreeze() }

// SimulateRun plays an offline run with a synthetic combat model and logs
// the difficulty curve once per simulated minute. It returns the run.
func SimulateRun(t Tuning, seconds float64, party int, wallet CoinLedger, seed uint64) *LocalRun {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lr := NewLocalRun(t, CharacterID(rng.IntN(len(Characters))), party, wallet, RandomChooser{Rng: rng, RerollChance: 0.2}, rng)

	dt := TickDuration.Seconds()
	nextLog := 0.0
	for lr.Elapsed() < seconds {
		_, ended := lr.Step(dt)

		// the player clears a share of the field that grows with their damage
		atk := lr.player.Attack.Stats
		share := Clamp(0.05*atk.DamageMult*atk.FireRateMult*float64(max(atk.ProjectileCount, 1)), 0, 1)
		kills := lr.ReportKills(int(math.Round(float64(lr.director.Alive()) * share * dt * 10)))
		if kills > 0 && lr.director.Params() != nil {
			lr.AddXP(float64(kills) * lr.director.Params().EnemyXPReward)
		}
		if lr.director.Alive() > 0 && rng.Float64() < 0.02 {
			lr.Hit(lr.diff.Spawn.EnemyDamage)
		}

		if lr.Elapsed() >= nextLog {
			d := lr.diff
			log.Printf("sim t=%4.0fs mlvl=%2d lvl=%3d interval=%.2fs cap=%3d hp=%.1f dmg=%.1f alive=%3d enrage=%v",
				lr.Elapsed(), d.MonsterLevel, lr.Level(), d.Spawn.SpawnInterval, d.Spawn.MaxEnemies,
				d.Spawn.EnemyMaxHealth, d.Spawn.EnemyDamage, lr.director.Alive(), d.EnrageActive)
			nextLog += 60
		}
		if ended {
			break
		}
	}
	log.Printf("sim finished: %s at %.0fs, level %d, %d kills, %d coins",
		lr.Phase(), lr.Elapsed(), lr.Level(), lr.player.Kills, lr.player.Coins)
	return lr
}
