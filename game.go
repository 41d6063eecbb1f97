package main

import (
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 30 // simulation ticks per second
	BroadcastRate  = 10 // state frames per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	maxPlayersPerSession = 8
	inboxSize            = 256
	maxReportedAmount    = 1e6 // sanity cap on client-reported xp, kills and damage
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
}

// binarySender is implemented by clients that take msgpack state frames
type binarySender interface {
	SendBinary(data []byte)
}

type cmdKind int

const (
	cmdSelect cmdKind = iota
	cmdReroll
	cmdXP
	cmdKill
	cmdHit
	cmdDied
	cmdRestart
)

var cmdNames = [...]string{"select", "reroll", "xp", "kill", "hit", "died", "restart"}

func (k cmdKind) String() string {
	if k < 0 || int(k) >= len(cmdNames) {
		return "unknown"
	}
	return cmdNames[k]
}

// command is a client request waiting for the next tick
type command struct {
	kind     cmdKind
	playerID string
	round    int
	index    int
	amount   float64
}

// GameOptions configures a new Game. A zero Tuning means DefaultTuning.
type GameOptions struct {
	SessionID string
	Tuning    Tuning
	Seed      uint64 // 0 = random
	DB        *DB
	Ledger    CoinLedger
	Analytics *Analytics
}

// Game holds the state for one session: the players, their builds, the
// upgrade rounds and the difficulty curve. Client requests are queued and
// applied at the start of a tick so they never interleave with a round
// opening or closing.
type Game struct {
	mu        sync.Mutex
	sessionID string
	tuning    Tuning

	players map[string]*Player
	clients map[string]Broadcaster // playerID -> client

	book     *UpgradeBook
	gen      *OptionGenerator
	rounds   *RoundCoordinator
	scaler   *DifficultyScaler
	director *EnemyDirector
	clock    SessionClock
	mode     *ModeController
	progress TeamProgress

	queuedLevelUps int
	diff           DifficultyState
	orders         []SpawnOrder // spawn orders since the last frame

	inbox   chan command
	tick    uint64
	stopped bool
	stop    chan struct{}

	db        *DB
	ledger    CoinLedger
	analytics *Analytics
}

// NewGame creates a new Game
func NewGame(opts GameOptions) *Game {
	t := opts.Tuning
	if t.PlayerBaseHealth == 0 && t.Difficulty.BaseSpawnInterval == 0 {
		t = DefaultTuning()
	}
	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	}

	g := &Game{
		sessionID: opts.SessionID,
		tuning:    t,
		players:   make(map[string]*Player),
		clients:   make(map[string]Broadcaster),
		book:      NewUpgradeBook(),
		gen:       NewOptionGenerator(t.Progression, rng),
		scaler:    NewDifficultyScaler(t.Difficulty),
		director:  NewEnemyDirector(t.Difficulty),
		mode:      NewModeController(t.StageSeconds),
		progress:  NewTeamProgress(t.Progression),
		inbox:     make(chan command, inboxSize),
		stop:      make(chan struct{}),
		db:        opts.DB,
		ledger:    opts.Ledger,
		analytics: opts.Analytics,
	}
	if g.ledger == nil && opts.DB != nil {
		g.ledger = opts.DB
	}
	g.rounds = NewRoundCoordinator(roundHost{g})
	return g
}

// Run starts the game loop
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.stop)
	}
}

// AddPlayer adds a player with the chosen character. The player's build
// starts with the character's weapon; an open round does not include them.
func (g *Game) AddPlayer(name string, char CharacterID, accountID int64) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= maxPlayersPerSession {
		return nil
	}
	if !ValidCharacter(char) {
		char = CharVanguard
	}

	id := GenerateID(4)
	p := NewPlayer(id, name, char, g.tuning.PlayerBaseHealth)
	p.AccountID = accountID
	s := g.book.State(id)
	s.ApplyCharacter(char)
	p.SyncMaxHP(s)
	PushAttack(&p.Attack, s)
	g.players[id] = p

	g.analytics.TrackJSON(EvtPlayerJoin, accountID, g.sessionID, map[string]int{"char": int(char)})
	return p
}

// RemovePlayer removes a player and drops them from any open round, which
// may close it
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.players[id]; !ok {
		return
	}
	wasOpen := g.rounds.IsOpen()
	roundID := g.rounds.RoundID()
	g.rounds.DropClient(id)
	if wasOpen && !g.rounds.IsOpen() {
		g.roundClosed(roundID)
	}
	delete(g.players, id)
	delete(g.clients, id)
	g.book.Remove(id)
}

// SetClient associates a broadcaster with a player. A round that opened
// between AddPlayer and now already counts the player, so its options are
// sent here.
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
	if s, ok := g.book.Lookup(playerID); ok {
		client.SendJSON(Envelope{T: MsgSync, Data: SyncMsg{PlayerID: playerID, Upgrades: s.Snapshot()}})
	}
	if g.rounds.IsPending(playerID) {
		roundHost{g}.ShowOptions(playerID, g.rounds.RoundID(), g.rounds.Options(playerID), g.rounds.RerollAvailable(playerID))
	}
}

// HasPlayer reports whether a player is in the session
func (g *Game) HasPlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[id]
	return ok
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// Level returns the team level
func (g *Game) Level() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progress.Level
}

// OpenRound returns the id of the open round, 0 if none
func (g *Game) OpenRound() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.rounds.IsOpen() {
		return 0
	}
	return g.rounds.RoundID()
}

// SpawnParams returns the parameters last published to the spawner
func (g *Game) SpawnParams() *SpawnParams {
	return g.director.Params()
}

// HandleSelect queues an option pick
func (g *Game) HandleSelect(playerID string, round, index int) {
	g.enqueue(command{kind: cmdSelect, playerID: playerID, round: round, index: index})
}

// HandleReroll queues a reroll request
func (g *Game) HandleReroll(playerID string, round int) {
	g.enqueue(command{kind: cmdReroll, playerID: playerID, round: round})
}

// HandleXP queues collected experience
func (g *Game) HandleXP(playerID string, amount float64) {
	g.enqueue(command{kind: cmdXP, playerID: playerID, amount: amount})
}

// HandleKills queues an enemy kill report
func (g *Game) HandleKills(playerID string, n float64) {
	g.enqueue(command{kind: cmdKill, playerID: playerID, amount: n})
}

// HandleHit queues damage taken by a player
func (g *Game) HandleHit(playerID string, damage float64) {
	g.enqueue(command{kind: cmdHit, playerID: playerID, amount: damage})
}

// HandleDied queues a death reported by the client
func (g *Game) HandleDied(playerID string) {
	g.enqueue(command{kind: cmdDied, playerID: playerID})
}

// HandleRestart queues a restart request; only honored once the run ended
func (g *Game) HandleRestart(playerID string) {
	g.enqueue(command{kind: cmdRestart, playerID: playerID})
}

func (g *Game) enqueue(c command) {
	select {
	case g.inbox <- c:
	default:
		log.Printf("session %s: inbox full, dropping %s from %s (round %d)", g.sessionID, c.kind, c.playerID, c.round)
	}
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	g.drainInbox()
	g.openQueuedRound()

	if g.mode.Running() && len(g.players) > 0 {
		if dt := g.clock.Advance(TickDuration.Seconds()); dt > 0 {
			g.step(dt)
		}
		if g.mode.Evaluate(g.clock.Elapsed(), g.aliveCount(), len(g.players)) {
			g.endRun()
		}
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// step advances the unfrozen world by dt simulated seconds
func (g *Game) step(dt float64) {
	g.diff = g.scaler.Compute(g.clock.Elapsed(), len(g.players))
	g.director.Publish(g.diff.Spawn)
	g.orders = append(g.orders, g.director.Tick(dt)...)

	for id, p := range g.players {
		if s, ok := g.book.Lookup(id); ok {
			p.Regen(dt, s.RegenPerSecond)
		}
	}
}

func (g *Game) drainInbox() {
	for n := len(g.inbox); n > 0; n-- {
		g.apply(<-g.inbox)
	}
}

func (g *Game) apply(c command) {
	p, ok := g.players[c.playerID]
	if !ok {
		return
	}
	amount := c.amount
	if math.IsNaN(amount) {
		amount = 0
	}
	amount = Clamp(amount, 0, maxReportedAmount)

	switch c.kind {
	case cmdSelect:
		roundID := g.rounds.RoundID()
		if g.rounds.Submit(c.playerID, c.index, c.round) && !g.rounds.IsOpen() {
			g.roundClosed(roundID)
		}

	case cmdReroll:
		if g.rounds.Reroll(c.playerID, c.round) {
			g.analytics.TrackJSON(EvtReroll, p.AccountID, g.sessionID, map[string]int{"round": c.round})
		}

	case cmdXP:
		if !g.mode.Running() || !p.Alive {
			return
		}
		s := g.book.State(c.playerID)
		for _, lvl := range g.progress.Add(amount * s.XPGainMult) {
			g.onLevelUp(lvl)
		}

	case cmdKill:
		if !g.mode.Running() {
			return
		}
		p.Kills += g.director.ReportKills(int(amount))

	case cmdHit:
		if !g.mode.Running() || g.clock.Frozen() {
			return
		}
		if p.TakeDamage(amount) {
			g.playerDied(p)
		}

	case cmdDied:
		if !g.mode.Running() || !p.Alive {
			return
		}
		p.Kill()
		g.playerDied(p)

	case cmdRestart:
		if g.mode.Running() {
			return
		}
		g.resetRun()
	}
}

// onLevelUp queues a round for the new team level and opens it right away
// when no round is running
func (g *Game) onLevelUp(level int) {
	g.analytics.TrackJSON(EvtLevelUp, 0, g.sessionID, map[string]int{"level": level})
	g.broadcastMsg(Envelope{T: MsgLevelUp, Data: LevelUpMsg{Level: level}})
	g.queuedLevelUps++
	g.openQueuedRound()
}

func (g *Game) openQueuedRound() {
	if g.queuedLevelUps == 0 || g.rounds.IsOpen() || !g.mode.Running() {
		return
	}
	ids := g.book.Order()
	if len(ids) == 0 {
		g.queuedLevelUps = 0
		return
	}
	if g.rounds.BeginRound(ids) {
		g.queuedLevelUps--
		log.Printf("session %s: round %d opened for %d players (level %d)",
			g.sessionID, g.rounds.RoundID(), len(ids), g.progress.Level)
		g.analytics.TrackJSON(EvtRoundOpen, 0, g.sessionID, map[string]int{
			"round": g.rounds.RoundID(), "players": len(ids), "level": g.progress.Level,
		})
	}
}

func (g *Game) roundClosed(roundID int) {
	g.analytics.TrackJSON(EvtRoundClose, 0, g.sessionID, map[string]int{"round": roundID})
	g.syncAll()
}

// syncAll pushes every client the read-only mirror of its own build
func (g *Game) syncAll() {
	for id, client := range g.clients {
		if s, ok := g.book.Lookup(id); ok {
			client.SendJSON(Envelope{T: MsgSync, Data: SyncMsg{PlayerID: id, Upgrades: s.Snapshot()}})
		}
	}
}

func (g *Game) playerDied(p *Player) {
	g.broadcastMsg(Envelope{T: MsgPlayerDied, Data: PlayerDiedMsg{ID: p.ID, Name: p.Name}})
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// endRun settles coins and records the run. Persistence happens off the
// game loop.
func (g *Game) endRun() {
	g.rounds.Abort()
	g.queuedLevelUps = 0

	elapsed := g.mode.EndedAt()
	outcome := g.mode.Phase().String()
	survival := int(elapsed/60) * g.tuning.CoinsPerMinute

	rec := RunRecord{
		SessionID: g.sessionID,
		Outcome:   outcome,
		Duration:  elapsed,
		Level:     g.progress.Level,
		Players:   len(g.players),
		Kills:     g.director.Kills(),
	}
	for id, p := range g.players {
		p.Coins += survival
		rec.Results = append(rec.Results, RunResult{AccountID: p.AccountID, Kills: p.Kills, Coins: p.Coins})
		if client, ok := g.clients[id]; ok {
			client.SendJSON(Envelope{T: MsgPhase, Data: PhaseMsg{
				Phase:   outcome,
				Elapsed: elapsed,
				Level:   g.progress.Level,
				Kills:   p.Kills,
				Coins:   p.Coins,
			}})
		}
	}

	log.Printf("session %s: run ended (%s) after %.0fs at level %d", g.sessionID, outcome, elapsed, g.progress.Level)
	g.analytics.TrackJSON(EvtRunEnd, 0, g.sessionID, map[string]interface{}{
		"outcome": outcome, "duration": elapsed, "level": g.progress.Level, "players": len(g.players),
	})
	go g.persistRun(rec)
}

func (g *Game) persistRun(rec RunRecord) {
	if g.db != nil {
		if _, err := g.db.RecordRun(rec); err != nil {
			log.Printf("session %s: record run: %v", rec.SessionID, err)
		}
	}
	if g.ledger == nil {
		return
	}
	for _, r := range rec.Results {
		if r.AccountID <= 0 || r.Coins <= 0 {
			continue
		}
		if _, err := g.ledger.Credit(r.AccountID, r.Coins); err != nil {
			log.Printf("session %s: credit %d coins to %d: %v", rec.SessionID, r.Coins, r.AccountID, err)
		}
	}
}

// resetRun destroys every build and starts a fresh run with the same players
func (g *Game) resetRun() {
	g.rounds.Abort()
	order := g.book.Order()
	g.book.Reset()
	g.clock.Reset()
	g.mode.Reset()
	g.progress.Reset()
	g.director.Reset()
	g.queuedLevelUps = 0
	g.orders = nil
	g.diff = DifficultyState{}

	for _, id := range order {
		p, ok := g.players[id]
		if !ok {
			continue
		}
		p.Revive()
		s := g.book.State(id)
		s.ApplyCharacter(p.Character)
		p.SyncMaxHP(s)
		PushAttack(&p.Attack, s)
	}
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{Phase: PhasePlaying.String(), Level: 1}})
	g.syncAll()
	log.Printf("session %s: run restarted", g.sessionID)
}

// broadcastState sends the current state frame to all clients
func (g *Game) broadcastState() {
	state := GameState{
		Players:   make([]PlayerState, 0, len(g.players)),
		Orders:    g.orders,
		Alive:     g.director.Alive(),
		Elapsed:   g.clock.Elapsed(),
		Frozen:    g.clock.Frozen(),
		Level:     g.progress.Level,
		XP:        g.progress.XP,
		XPNext:    g.progress.XPToNext(),
		Round:     g.rounds.RoundID(),
		RoundOpen: g.rounds.IsOpen(),
		Enrage:    g.diff.EnrageActive,
		Phase:     int(g.mode.Phase()),
		Tick:      g.tick,
	}
	if p := g.director.Params(); p != nil {
		state.Spawn = *p
	}
	for _, id := range g.book.Order() {
		if p, ok := g.players[id]; ok {
			state.Players = append(state.Players, p.ToState())
		}
	}
	g.orders = nil

	data, err := msgpack.Marshal(&state)
	if err != nil {
		log.Printf("session %s: msgpack state: %v", g.sessionID, err)
		return
	}
	for _, client := range g.clients {
		if bs, ok := client.(binarySender); ok {
			bs.SendBinary(data)
			continue
		}
		client.SendJSON(Envelope{T: MsgState, Data: state})
	}
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}

// roundHost connects the coordinator to the game. Every call arrives with
// the game lock already held.
type roundHost struct {
	g *Game
}

func (h roundHost) GenerateFor(clientID string) []UpgradeOption {
	return h.g.gen.GenerateOptions(h.g.book.State(clientID), h.g.progress.Level)
}

func (h roundHost) ShowOptions(clientID string, roundID int, opts []UpgradeOption, rerollAvailable bool) {
	client, ok := h.g.clients[clientID]
	if !ok {
		return
	}
	titles, descs := RenderOptions(opts, h.g.book.State(clientID))
	client.SendJSON(Envelope{T: MsgOptions, Data: OptionsMsg{
		Round:        roundID,
		Titles:       titles,
		Descriptions: descs,
		Reroll:       rerollAvailable,
	}})
}

func (h roundHost) HideOptions(clientID string, roundID int) {
	if client, ok := h.g.clients[clientID]; ok {
		client.SendJSON(Envelope{T: MsgHide, Data: HideMsg{Round: roundID}})
	}
}

func (h roundHost) ApplySelection(clientID string, opt UpgradeOption) {
	p, ok := h.g.players[clientID]
	if !ok {
		return
	}
	s := h.g.book.State(clientID)
	opt.Apply(s, playerEffects{p})
	p.SyncMaxHP(s)
	PushAttack(&p.Attack, s)
	h.g.analytics.TrackJSON(EvtUpgrade, p.AccountID, h.g.sessionID, map[string]interface{}{
		"key": opt.Key, "level": h.g.progress.Level,
	})
}

func (h roundHost) Freeze() {
	h.g.clock.Freeze()
}

func (h roundHost) Unfreeze() {
	h.g.clock.Unfreeze()
}
