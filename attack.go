package main

// AttackStats are the multipliers an attack component fires with
type AttackStats struct {
	DamageMult       float64 `json:"dmg" msgpack:"dmg"`
	FireRateMult     float64 `json:"fr" msgpack:"fr"`
	RangeMult        float64 `json:"rng" msgpack:"rng"`
	SizeMult         float64 `json:"size" msgpack:"size"`
	AreaMult         float64 `json:"area" msgpack:"area"`
	LifetimeMult     float64 `json:"life" msgpack:"life"`
	ProjectileCount  int     `json:"proj" msgpack:"proj"`
	PierceBonus      int     `json:"pierce" msgpack:"pierce"`
	WeaponDamageMult float64 `json:"wdmg" msgpack:"wdmg"` // starting weapon's own multiplier
}

// AttackComponent receives derived attack parameters. The weapon firing
// patterns behind it live on the client.
type AttackComponent interface {
	ApplyStats(stats AttackStats)
	SetWeaponStats(kind WeaponKind, w WeaponStats)
}

// DeriveAttackStats folds an upgrade state into attack multipliers
func DeriveAttackStats(s *UpgradeState) AttackStats {
	start := s.Weapons[s.StartingWeapon()]
	return AttackStats{
		DamageMult:       s.DamageMult,
		FireRateMult:     s.FireRateMult,
		RangeMult:        s.RangeMult,
		SizeMult:         s.SizeMult,
		AreaMult:         s.AttackAreaMult,
		LifetimeMult:     s.LifetimeMult,
		ProjectileCount:  s.ProjectileCount + start.BonusProjectiles,
		PierceBonus:      s.ProjectilePierceBonus,
		WeaponDamageMult: start.DamageMult,
	}
}

// PushAttack sends the full derived attack setup to a component
func PushAttack(c AttackComponent, s *UpgradeState) {
	if c == nil || s == nil {
		return
	}
	c.ApplyStats(DeriveAttackStats(s))
	for k := WeaponKind(0); k < WeaponKindCount; k++ {
		c.SetWeaponStats(k, s.Weapons[k])
	}
}

// AttackProfile is the server-side attack component of one player. It is
// mirrored to clients in every state frame.
type AttackProfile struct {
	Stats   AttackStats                  `json:"stats" msgpack:"s"`
	Weapons [WeaponKindCount]WeaponStats `json:"weapons" msgpack:"w"`
}

// ApplyStats implements AttackComponent
func (a *AttackProfile) ApplyStats(stats AttackStats) {
	a.Stats = stats
}

// SetWeaponStats implements AttackComponent
func (a *AttackProfile) SetWeaponStats(kind WeaponKind, w WeaponStats) {
	if kind < 0 || int(kind) >= WeaponKindCount {
		return
	}
	a.Weapons[kind] = w
}

// ActiveWeapons returns the unlocked weapon kinds in table order
func (a *AttackProfile) ActiveWeapons() []WeaponKind {
	var out []WeaponKind
	for k := WeaponKind(0); k < WeaponKindCount; k++ {
		if a.Weapons[k].Unlocked {
			out = append(out, k)
		}
	}
	return out
}
