package main

import (
	"fmt"
	"math/rand/v2"
)

// Effects lets an option reach the player outside its UpgradeState
type Effects interface {
	Heal(fraction float64)
	GrantCoins(amount int)
}

// UpgradeOption is one choice on offer. Describe is evaluated whenever the
// option is displayed, never at generation time.
type UpgradeOption struct {
	Key      string
	Title    string
	Describe func(s *UpgradeState) string
	Apply    func(s *UpgradeState, fx Effects)
}

// Description renders the option against the live state
func (o UpgradeOption) Description(s *UpgradeState) string {
	if o.Describe == nil || s == nil {
		return ""
	}
	return o.Describe(s)
}

// statRule is the fixed effect of one stat category pick
type statRule struct {
	apply    func(s *UpgradeState)
	describe func(s *UpgradeState) string
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func arrowPct(label string, cur, step float64) string {
	return fmt.Sprintf("%s %s -> %s", label, pct(cur), pct(cur+step))
}

var statRules = [StatKindCount]statRule{
	StatDamage: {
		apply:    func(s *UpgradeState) { s.DamageMult += 0.10 },
		describe: func(s *UpgradeState) string { return arrowPct("Damage", s.DamageMult, 0.10) },
	},
	StatFireRate: {
		apply:    func(s *UpgradeState) { s.FireRateMult += 0.10 },
		describe: func(s *UpgradeState) string { return arrowPct("Fire rate", s.FireRateMult, 0.10) },
	},
	StatMoveSpeed: {
		apply:    func(s *UpgradeState) { s.MoveSpeedMult += 0.08 },
		describe: func(s *UpgradeState) string { return arrowPct("Move speed", s.MoveSpeedMult, 0.08) },
	},
	StatHealth: {
		apply: func(s *UpgradeState) {
			s.MaxHealthBonus += 10
			s.RegenPerSecond += 0.5
		},
		describe: func(s *UpgradeState) string {
			return fmt.Sprintf("Max health +%.0f -> +%.0f, regen %.1f/s -> %.1f/s",
				s.MaxHealthBonus, s.MaxHealthBonus+10, s.RegenPerSecond, s.RegenPerSecond+0.5)
		},
	},
	StatRange: {
		apply: func(s *UpgradeState) {
			s.RangeMult += 0.15
			s.LifetimeMult += 0.05
		},
		describe: func(s *UpgradeState) string { return arrowPct("Range", s.RangeMult, 0.15) },
	},
	StatXPGain: {
		apply:    func(s *UpgradeState) { s.XPGainMult += 0.10 },
		describe: func(s *UpgradeState) string { return arrowPct("Experience", s.XPGainMult, 0.10) },
	},
	StatMagnet: {
		apply: func(s *UpgradeState) {
			s.MagnetRangeMult += 0.20
			s.MagnetSpeedMult += 0.10
		},
		describe: func(s *UpgradeState) string { return arrowPct("Pickup range", s.MagnetRangeMult, 0.20) },
	},
	StatSize: {
		apply: func(s *UpgradeState) {
			s.SizeMult += 0.10
			s.AttackAreaMult += 0.08
		},
		describe: func(s *UpgradeState) string { return arrowPct("Size", s.SizeMult, 0.10) },
	},
	StatPierce: {
		apply: func(s *UpgradeState) { s.ProjectilePierceBonus++ },
		describe: func(s *UpgradeState) string {
			return fmt.Sprintf("Pierce %d -> %d", s.ProjectilePierceBonus, s.ProjectilePierceBonus+1)
		},
	},
	StatProjectiles: {
		// every second pick adds a projectile; the counter is bumped by the caller first
		apply: func(s *UpgradeState) {
			if s.StatLevels[StatProjectiles]%2 == 0 {
				s.ProjectileCount++
			}
		},
		describe: func(s *UpgradeState) string {
			if (s.StatLevels[StatProjectiles]+1)%2 == 0 {
				return fmt.Sprintf("Projectiles %d -> %d", s.ProjectileCount, s.ProjectileCount+1)
			}
			return fmt.Sprintf("Projectiles %d (next pick adds one)", s.ProjectileCount)
		},
	},
}

// MaxOptionsPerRound caps how many choices one round shows a player
const MaxOptionsPerRound = 4

// OptionGenerator builds the upgrade choices for one player.
// It is not safe for concurrent use; the owning game serializes calls.
type OptionGenerator struct {
	cfg ProgressionTuning
	rng *rand.Rand
}

// NewOptionGenerator creates a generator. A nil rng uses a random seed.
func NewOptionGenerator(cfg ProgressionTuning, rng *rand.Rand) *OptionGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &OptionGenerator{cfg: cfg, rng: rng}
}

// GenerateOptions returns up to OptionsPerRound shuffled choices for the
// state at the given player level. It never returns an empty list.
func (g *OptionGenerator) GenerateOptions(s *UpgradeState, level int) []UpgradeOption {
	opts := g.Candidates(s, level)
	g.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	limit := g.cfg.OptionsPerRound
	if limit < 1 || limit > MaxOptionsPerRound {
		limit = MaxOptionsPerRound
	}
	if len(opts) > limit {
		opts = opts[:limit]
	}
	return opts
}

// Candidates lists every legal option before shuffling and truncation
func (g *OptionGenerator) Candidates(s *UpgradeState, level int) []UpgradeOption {
	var opts []UpgradeOption

	freeStatSlot := s.UnlockedStatCount() < g.cfg.MaxStatSlots
	for k := StatKind(0); k < StatKindCount; k++ {
		lvl := s.StatLevels[k]
		if lvl >= g.cfg.MaxStatLevel {
			continue
		}
		if lvl == 0 && !freeStatSlot {
			continue
		}
		opts = append(opts, statOption(k))
	}

	slots := WeaponSlotLimit(level, g.cfg.MaxWeaponSlots)
	held := s.UnlockedWeaponCount()
	for k := WeaponKind(0); k < WeaponKindCount; k++ {
		w := s.Weapons[k]
		if w.Unlocked {
			if w.Level < g.cfg.MaxWeaponLevel {
				opts = append(opts, weaponLevelOption(k))
			}
			continue
		}
		if held < slots {
			opts = append(opts, weaponAcquireOption(k, slots))
		}
	}

	if len(opts) == 0 {
		opts = fallbackOptions(g.cfg)
	}
	return opts
}

func statOption(k StatKind) UpgradeOption {
	rule := statRules[k]
	return UpgradeOption{
		Key:      fmt.Sprintf("stat:%d", k),
		Title:    k.String(),
		Describe: rule.describe,
		Apply: func(s *UpgradeState, _ Effects) {
			s.StatLevels[k]++
			rule.apply(s)
		},
	}
}

func weaponLevelOption(k WeaponKind) UpgradeOption {
	rule := RuleFor(k)
	return UpgradeOption{
		Key:   fmt.Sprintf("weapon:%d:up", k),
		Title: rule.Name + " +",
		Describe: func(s *UpgradeState) string {
			w := s.Weapons[k]
			desc := fmt.Sprintf("Lv %d -> %d, damage %s -> %s", w.Level, w.Level+1,
				pct(w.DamageMult), pct(w.DamageMult+rule.DamageStep))
			if rule.BonusEvery > 0 && (w.Level+1)%rule.BonusEvery == 0 {
				desc += ", +1 projectile"
			}
			return desc
		},
		Apply: func(s *UpgradeState, _ Effects) {
			s.Weapons[k].levelUp(rule)
		},
	}
}

// weaponAcquireOption unlocks k; slots is the holder's current slot limit
func weaponAcquireOption(k WeaponKind, slots int) UpgradeOption {
	rule := RuleFor(k)
	return UpgradeOption{
		Key:   fmt.Sprintf("weapon:%d:new", k),
		Title: "New: " + rule.Name,
		Describe: func(s *UpgradeState) string {
			return fmt.Sprintf("Unlock %s (weapons %d -> %d of %d)", rule.Name,
				s.UnlockedWeaponCount(), s.UnlockedWeaponCount()+1, slots)
		},
		Apply: func(s *UpgradeState, _ Effects) {
			s.Weapons[k].unlock()
		},
	}
}

// fallbackOptions are offered only when nothing else is legal
func fallbackOptions(cfg ProgressionTuning) []UpgradeOption {
	heal := cfg.FallbackHealFraction
	coins := cfg.FallbackCoins
	return []UpgradeOption{
		{
			Key:   "fallback:heal",
			Title: "Field Repair",
			Describe: func(*UpgradeState) string {
				return fmt.Sprintf("Restore %s of max health", pct(heal))
			},
			Apply: func(_ *UpgradeState, fx Effects) {
				if fx != nil {
					fx.Heal(heal)
				}
			},
		},
		{
			Key:   "fallback:coins",
			Title: "Salvage",
			Describe: func(*UpgradeState) string {
				return fmt.Sprintf("+%d coins", coins)
			},
			Apply: func(_ *UpgradeState, fx Effects) {
				if fx != nil {
					fx.GrantCoins(coins)
				}
			},
		},
	}
}

// RenderOptions evaluates titles and descriptions against the live state
func RenderOptions(opts []UpgradeOption, s *UpgradeState) (titles, descs []string) {
	titles = make([]string, len(opts))
	descs = make([]string, len(opts))
	for i, o := range opts {
		titles[i] = o.Title
		descs[i] = o.Description(s)
	}
	return titles, descs
}
