package main

import "math"

// Player is one member of a run. Position and movement stay on the client;
// the server keeps vitals, build and run totals.
type Player struct {
	ID        string
	Name      string
	Character CharacterID
	AccountID int64 // 0 = guest

	HP     float64
	MaxHP  float64
	BaseHP float64
	Alive  bool
	Deaths int
	Kills  int
	Coins  int // earned this run, credited when it ends
	Attack AttackProfile
}

// NewPlayer creates a living player at full base health
func NewPlayer(id, name string, char CharacterID, baseHP float64) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Character: char,
		HP:        baseHP,
		MaxHP:     baseHP,
		BaseHP:    baseHP,
		Alive:     true,
	}
}

// SyncMaxHP applies the build's health bonus. Gaining max health heals
// by the same amount.
func (p *Player) SyncMaxHP(s *UpgradeState) {
	newMax := p.BaseHP + s.MaxHealthBonus
	if newMax > p.MaxHP && p.Alive {
		p.HP += newMax - p.MaxHP
	}
	p.MaxHP = newMax
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// Heal restores HP up to max. Dead players are not healed.
func (p *Player) Heal(amount float64) {
	if !p.Alive || amount <= 0 {
		return
	}
	p.HP = math.Min(p.MaxHP, p.HP+amount)
}

// Regen applies perSecond healing over dt seconds
func (p *Player) Regen(dt, perSecond float64) {
	if perSecond <= 0 {
		return
	}
	p.Heal(dt * perSecond)
}

// TakeDamage reduces HP and returns true if the player died
func (p *Player) TakeDamage(dmg float64) bool {
	if !p.Alive || dmg <= 0 || math.IsNaN(dmg) {
		return false
	}
	p.HP -= dmg
	if p.HP <= 0 {
		p.Kill()
		return true
	}
	return false
}

// Kill marks the player dead
func (p *Player) Kill() {
	if !p.Alive {
		return
	}
	p.HP = 0
	p.Alive = false
	p.Deaths++
}

// Revive resets vitals and run totals for a new run
func (p *Player) Revive() {
	p.MaxHP = p.BaseHP
	p.HP = p.BaseHP
	p.Alive = true
	p.Kills = 0
	p.Coins = 0
	p.Deaths = 0
	p.Attack = AttackProfile{}
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:     p.ID,
		Name:   p.Name,
		Char:   int(p.Character),
		HP:     p.HP,
		MaxHP:  p.MaxHP,
		Alive:  p.Alive,
		Kills:  p.Kills,
		Coins:  p.Coins,
		Attack: p.Attack,
	}
}

// playerEffects routes an option's side effects to its owner
type playerEffects struct {
	p *Player
}

func (fx playerEffects) Heal(fraction float64) {
	fx.p.Heal(fraction * fx.p.MaxHP)
}

func (fx playerEffects) GrantCoins(amount int) {
	if amount > 0 {
		fx.p.Coins += amount
	}
}
