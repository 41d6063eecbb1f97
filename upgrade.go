package main

// StatKind identifies an upgradeable stat category
type StatKind int

const (
	StatDamage      StatKind = 0
	StatFireRate    StatKind = 1
	StatMoveSpeed   StatKind = 2
	StatHealth      StatKind = 3
	StatRange       StatKind = 4
	StatXPGain      StatKind = 5
	StatMagnet      StatKind = 6
	StatSize        StatKind = 7
	StatPierce      StatKind = 8
	StatProjectiles StatKind = 9
)

// StatKindCount is the number of stat categories
const StatKindCount = 10

var statNames = [StatKindCount]string{
	StatDamage:      "Damage",
	StatFireRate:    "Fire Rate",
	StatMoveSpeed:   "Move Speed",
	StatHealth:      "Vitality",
	StatRange:       "Range",
	StatXPGain:      "Wisdom",
	StatMagnet:      "Magnet",
	StatSize:        "Size",
	StatPierce:      "Pierce",
	StatProjectiles: "Multishot",
}

func (k StatKind) String() string {
	if k < 0 || int(k) >= StatKindCount {
		return "Unknown"
	}
	return statNames[k]
}

// UpgradeState is one player's build: weapons, multipliers and stat levels.
// Only the round coordinator mutates it, through an option's Apply.
type UpgradeState struct {
	PlayerID string
	Weapons  [WeaponKindCount]WeaponStats

	DamageMult      float64
	FireRateMult    float64
	RangeMult       float64
	SizeMult        float64
	AttackAreaMult  float64
	LifetimeMult    float64
	MoveSpeedMult   float64
	XPGainMult      float64
	MagnetRangeMult float64
	MagnetSpeedMult float64
	RegenPerSecond  float64
	MaxHealthBonus  float64

	// StatLevels counts how many times each category was picked
	StatLevels [StatKindCount]int

	ProjectileCount       int
	ProjectilePierceBonus int

	Character             CharacterID
	CharacterBonusApplied bool
}

// NewUpgradeState returns a state with every weapon locked and neutral multipliers
func NewUpgradeState(playerID string) *UpgradeState {
	s := &UpgradeState{
		PlayerID:        playerID,
		DamageMult:      1,
		FireRateMult:    1,
		RangeMult:       1,
		SizeMult:        1,
		AttackAreaMult:  1,
		LifetimeMult:    1,
		MoveSpeedMult:   1,
		XPGainMult:      1,
		MagnetRangeMult: 1,
		MagnetSpeedMult: 1,
		ProjectileCount: 1,
	}
	for k := range s.Weapons {
		s.Weapons[k] = LockedWeapon(WeaponKind(k))
	}
	return s
}

// ApplyCharacter unlocks the character's starting weapon and applies its
// bonus. The bonus is only ever applied once per state.
func (s *UpgradeState) ApplyCharacter(id CharacterID) {
	if s.CharacterBonusApplied {
		return
	}
	def := GetCharacter(id)
	s.Character = id
	s.Weapons[def.Weapon].unlock()
	if def.Bonus != nil {
		def.Bonus(s)
	}
	s.CharacterBonusApplied = true
}

// StartingWeapon returns the weapon granted by the chosen character
func (s *UpgradeState) StartingWeapon() WeaponKind {
	return GetCharacter(s.Character).Weapon
}

// UnlockedWeaponCount counts weapons with level > 0
func (s *UpgradeState) UnlockedWeaponCount() int {
	n := 0
	for i := range s.Weapons {
		if s.Weapons[i].Unlocked {
			n++
		}
	}
	return n
}

// UnlockedStatCount counts stat categories picked at least once
func (s *UpgradeState) UnlockedStatCount() int {
	n := 0
	for _, lvl := range s.StatLevels {
		if lvl > 0 {
			n++
		}
	}
	return n
}

// WeaponSlotLimit is the number of weapons a player may hold at a level:
// 1 below level 10, 2 below 20, 3 from 20 on, never above maxSlots.
func WeaponSlotLimit(level, maxSlots int) int {
	if maxSlots < 1 {
		maxSlots = 1
	}
	slots := 1
	switch {
	case level >= 20:
		slots = 3
	case level >= 10:
		slots = 2
	}
	if slots > maxSlots {
		slots = maxSlots
	}
	return slots
}

// UpgradeSnapshot is the read-only mirror sent to clients after a round
type UpgradeSnapshot struct {
	Character   int                          `json:"char"`
	Weapons     [WeaponKindCount]WeaponStats `json:"weapons"`
	StatLevels  [StatKindCount]int           `json:"stats"`
	Damage      float64                      `json:"dmg"`
	FireRate    float64                      `json:"fr"`
	Range       float64                      `json:"rng"`
	Size        float64                      `json:"size"`
	Area        float64                      `json:"area"`
	Lifetime    float64                      `json:"life"`
	MoveSpeed   float64                      `json:"spd"`
	XPGain      float64                      `json:"xp"`
	MagnetRange float64                      `json:"mgr"`
	MagnetSpeed float64                      `json:"mgs"`
	Regen       float64                      `json:"regen"`
	Projectiles int                          `json:"proj"`
	Pierce      int                          `json:"pierce"`
}

// Snapshot copies the state into its client mirror
func (s *UpgradeState) Snapshot() UpgradeSnapshot {
	return UpgradeSnapshot{
		Character:   int(s.Character),
		Weapons:     s.Weapons,
		StatLevels:  s.StatLevels,
		Damage:      s.DamageMult,
		FireRate:    s.FireRateMult,
		Range:       s.RangeMult,
		Size:        s.SizeMult,
		Area:        s.AttackAreaMult,
		Lifetime:    s.LifetimeMult,
		MoveSpeed:   s.MoveSpeedMult,
		XPGain:      s.XPGainMult,
		MagnetRange: s.MagnetRangeMult,
		MagnetSpeed: s.MagnetSpeedMult,
		Regen:       s.RegenPerSecond,
		Projectiles: s.ProjectileCount,
		Pierce:      s.ProjectilePierceBonus,
	}
}

// UpgradeBook holds every player's UpgradeState for one session
type UpgradeBook struct {
	states map[string]*UpgradeState
	order  []string // registration order
}

// NewUpgradeBook creates an empty book
func NewUpgradeBook() *UpgradeBook {
	return &UpgradeBook{states: make(map[string]*UpgradeState)}
}

// State returns the player's state, creating it on first reference
func (b *UpgradeBook) State(playerID string) *UpgradeState {
	if s, ok := b.states[playerID]; ok {
		return s
	}
	s := NewUpgradeState(playerID)
	b.states[playerID] = s
	b.order = append(b.order, playerID)
	return s
}

// Lookup returns the player's state without creating one
func (b *UpgradeBook) Lookup(playerID string) (*UpgradeState, bool) {
	s, ok := b.states[playerID]
	return s, ok
}

// Remove forgets a player's state
func (b *UpgradeBook) Remove(playerID string) {
	if _, ok := b.states[playerID]; !ok {
		return
	}
	delete(b.states, playerID)
	for i, id := range b.order {
		if id == playerID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Reset destroys every state
func (b *UpgradeBook) Reset() {
	b.states = make(map[string]*UpgradeState)
	b.order = nil
}

// Order returns player ids in registration order
func (b *UpgradeBook) Order() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of tracked players
func (b *UpgradeBook) Len() int {
	return len(b.states)
}
