package main

// WeaponKind identifies one of the seven weapons
type WeaponKind int

const (
	WeaponBlaster WeaponKind = 0 // starting weapon
	WeaponRailgun WeaponKind = 1 // long-range piercing
	WeaponSeeker  WeaponKind = 2 // homing missiles
	WeaponNova    WeaponKind = 3 // area pulse around the player
	WeaponOrbit   WeaponKind = 4 // orbiting blades
	WeaponChain   WeaponKind = 5 // homing chain lightning
	WeaponFrost   WeaponKind = 6 // slowing area field
)

// WeaponKindCount is the number of weapon kinds
const WeaponKindCount = 7

// WeaponRule is the fixed per-weapon level-up table entry
type WeaponRule struct {
	Name          string
	DamageStep    float64 // added to DamageMult per level
	FireRateStep  float64 // added to FireRateMult per level
	BonusEvery    int     // a bonus projectile every Nth level
	HitStun       float64 // seconds
	Knockback     float64 // world units
	BaseRangeMult float64
	BaseAreaMult  float64
}

var weaponRules = [WeaponKindCount]WeaponRule{
	WeaponBlaster: {Name: "Blaster", DamageStep: 0.15, FireRateStep: 0.08, BonusEvery: 3, HitStun: 0.05, Knockback: 4, BaseRangeMult: 1, BaseAreaMult: 1},
	WeaponRailgun: {Name: "Railgun", DamageStep: 0.25, FireRateStep: 0.05, BonusEvery: 5, HitStun: 0.1, Knockback: 8, BaseRangeMult: 1.6, BaseAreaMult: 1},
	WeaponSeeker:  {Name: "Seeker Missiles", DamageStep: 0.15, FireRateStep: 0.1, BonusEvery: 4, HitStun: 0.05, Knockback: 6, BaseRangeMult: 1.2, BaseAreaMult: 1},
	WeaponNova:    {Name: "Nova Pulse", DamageStep: 0.2, FireRateStep: 0.06, BonusEvery: 4, HitStun: 0.15, Knockback: 12, BaseRangeMult: 1, BaseAreaMult: 1.3},
	WeaponOrbit:   {Name: "Orbit Blades", DamageStep: 0.12, FireRateStep: 0.1, BonusEvery: 4, HitStun: 0.08, Knockback: 10, BaseRangeMult: 1, BaseAreaMult: 1.1},
	WeaponChain:   {Name: "Chain Lightning", DamageStep: 0.18, FireRateStep: 0.07, BonusEvery: 4, HitStun: 0.2, Knockback: 0, BaseRangeMult: 1.3, BaseAreaMult: 1},
	WeaponFrost:   {Name: "Frost Field", DamageStep: 0.1, FireRateStep: 0.05, BonusEvery: 4, HitStun: 0.4, Knockback: 2, BaseRangeMult: 1, BaseAreaMult: 1.5},
}

// RuleFor returns the level-up rule for a weapon kind
func RuleFor(kind WeaponKind) WeaponRule {
	if kind < 0 || int(kind) >= WeaponKindCount {
		return weaponRules[WeaponBlaster]
	}
	return weaponRules[kind]
}

func (k WeaponKind) String() string {
	return RuleFor(k).Name
}

// WeaponStats is the mutable per-player record of one weapon
type WeaponStats struct {
	DisplayName       string  `json:"name" msgpack:"n"`
	Level             int     `json:"lvl" msgpack:"l"`
	Unlocked          bool    `json:"on" msgpack:"u"`
	DamageMult        float64 `json:"dmg" msgpack:"d"`
	FireRateMult      float64 `json:"fr" msgpack:"f"`
	RangeMult         float64 `json:"rng" msgpack:"r"`
	AreaMult          float64 `json:"area" msgpack:"a"`
	BonusProjectiles  int     `json:"bp" msgpack:"b"`
	HitStunDuration   float64 `json:"stun" msgpack:"s"`
	KnockbackDistance float64 `json:"kb" msgpack:"k"`
}

// LockedWeapon returns the default record for a weapon nobody has picked yet
func LockedWeapon(kind WeaponKind) WeaponStats {
	r := RuleFor(kind)
	return WeaponStats{
		DisplayName:       r.Name,
		DamageMult:        1,
		FireRateMult:      1,
		RangeMult:         r.BaseRangeMult,
		AreaMult:          r.BaseAreaMult,
		HitStunDuration:   r.HitStun,
		KnockbackDistance: r.Knockback,
	}
}

// normalize keeps Level and Unlocked consistent: level > 0 iff unlocked
func (w *WeaponStats) normalize() {
	if w.Level < 0 {
		w.Level = 0
	}
	w.Unlocked = w.Level > 0
}

// unlock acquires the weapon at level 1
func (w *WeaponStats) unlock() {
	if w.Level < 1 {
		w.Level = 1
	}
	w.normalize()
}

// levelUp raises the weapon one level using its rule. The bonus projectile
// lands on level multiples of the rule's cadence.
func (w *WeaponStats) levelUp(rule WeaponRule) {
	w.Level++
	w.DamageMult += rule.DamageStep
	w.FireRateMult += rule.FireRateStep
	if rule.BonusEvery > 0 && w.Level%rule.BonusEvery == 0 {
		w.BonusProjectiles++
	}
	w.normalize()
}
