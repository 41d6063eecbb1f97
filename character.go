package main

// CharacterID identifies a starting character
type CharacterID int

const (
	CharVanguard CharacterID = 0
	CharRanger   CharacterID = 1
	CharWarden   CharacterID = 2
	CharMystic   CharacterID = 3
)

// CharacterDef holds a starting character's loadout
type CharacterDef struct {
	Name   string
	Weapon WeaponKind
	// Bonus is applied once to a fresh upgrade state
	Bonus func(s *UpgradeState)
	Blurb string
}

var Characters = [4]CharacterDef{
	// Vanguard: blaster, hits harder
	{
		Name: "Vanguard", Weapon: WeaponBlaster,
		Bonus: func(s *UpgradeState) { s.DamageMult += 0.1 },
		Blurb: "+10% damage",
	},
	// Ranger: railgun, reaches further
	{
		Name: "Ranger", Weapon: WeaponRailgun,
		Bonus: func(s *UpgradeState) { s.RangeMult += 0.15 },
		Blurb: "+15% range",
	},
	// Warden: orbit blades, bigger areas
	{
		Name: "Warden", Weapon: WeaponOrbit,
		Bonus: func(s *UpgradeState) { s.AttackAreaMult += 0.1 },
		Blurb: "+10% attack area",
	},
	// Mystic: seekers, learns faster
	{
		Name: "Mystic", Weapon: WeaponSeeker,
		Bonus: func(s *UpgradeState) { s.XPGainMult += 0.1 },
		Blurb: "+10% experience",
	},
}

// GetCharacter returns the definition for a character, Vanguard if unknown
func GetCharacter(id CharacterID) CharacterDef {
	if id < 0 || int(id) >= len(Characters) {
		return Characters[CharVanguard]
	}
	return Characters[id]
}

// ValidCharacter reports whether id names a real character
func ValidCharacter(id CharacterID) bool {
	return id >= 0 && int(id) < len(Characters)
}
