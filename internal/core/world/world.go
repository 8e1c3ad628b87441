// Package world holds the per-tick view of the game an agent consumes and the intents it
// produces. Units are tiles and seconds.
package world

import (
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

// PlayerID is a stable reference to a player. Agents store ids, never pointers into a
// snapshot, and resolve them against the next snapshot.
type PlayerID uint16

const NoPlayer PlayerID = 0xFFFF

type Ship uint8

const (
	Warbird Ship = iota
	Javelin
	Spider
	Leviathan
	Terrier
	Weasel
	Lancaster
	Shark
	Spectator
)

const ShipCount = 8

type Frequency uint16

// NoFrequency means no frequency change is wanted.
const NoFrequency Frequency = 999

// Status bits reported for a player.
type Status uint8

const (
	StatusStealth Status = 1 << iota
	StatusCloak
	StatusXRadar
	StatusAntiwarp
	StatusFlash
	StatusSafety
)

func (s Status) Has(bit Status) bool { return s&bit != 0 }

type Player struct {
	ID        PlayerID
	Name      string
	Position  physics.Vec2
	Velocity  physics.Vec2
	Heading   float64 // radians, 0 = up, clockwise
	Ship      Ship
	Frequency Frequency
	Energy    float64
	Status    Status
	Active    bool
	Repels    int
}

// Direction is the unit vector the player is facing.
func (p Player) Direction() physics.Vec2 { return physics.Heading(p.Heading) }

type ShipSettings struct {
	Radius       float64
	InitialSpeed float64
	MaxSpeed     float64
	Thrust       float64
	// RotationTime is how long a half turn takes.
	RotationTime    float64
	MaxEnergy       float64
	BulletSpeed     float64
	BombSpeed       float64
	BulletFireDelay float64
	BombFireDelay   float64
	DoubleBarrel    bool
	MaxBombs        int
	MaxMines        int
	InitialRepels   int
}

type Settings struct {
	Ships           [ShipCount]ShipSettings
	BulletAliveTime float64
	BombAliveTime   float64
	// BombExplodeRadius is the per-level blast radius.
	BombExplodeRadius float64
	MineAliveTime     float64
	// A repel pushes enemy weapons within RepelDistance away at RepelSpeed.
	RepelDistance float64
	RepelSpeed    float64
}

// Ship returns the settings for s, falling back to the first ship for spectators.
func (s *Settings) Ship(ship Ship) ShipSettings {
	if int(ship) >= ShipCount {
		return s.Ships[0]
	}
	return s.Ships[ship]
}

// DefaultSettings returns a balanced ruleset used by the simulation harness and tests.
func DefaultSettings() Settings {
	base := ShipSettings{
		Radius:          0.875,
		InitialSpeed:    12,
		MaxSpeed:        16,
		Thrust:          20,
		RotationTime:    0.6,
		MaxEnergy:       1500,
		BulletSpeed:     30,
		BombSpeed:       22,
		BulletFireDelay: 0.2,
		BombFireDelay:   0.8,
		MaxBombs:        1,
		MaxMines:        2,
		InitialRepels:   2,
	}
	var s Settings
	for i := range s.Ships {
		s.Ships[i] = base
	}
	s.Ships[Javelin].DoubleBarrel = true
	s.Ships[Leviathan].Radius = 1.5
	s.Ships[Leviathan].InitialSpeed = 9
	s.Ships[Terrier].InitialSpeed = 15
	s.BulletAliveTime = 1.2
	s.BombAliveTime = 2
	s.BombExplodeRadius = 3
	s.MineAliveTime = 20
	s.RepelDistance = 8
	s.RepelSpeed = 25
	return s
}

type WeaponKind uint8

const (
	WeaponBullet WeaponKind = iota
	WeaponBomb
	WeaponMine
)

// Weapon is a projectile in flight or a mine at rest.
type Weapon struct {
	Owner    PlayerID
	Kind     WeaponKind
	Position physics.Vec2
	Velocity physics.Vec2
	// Remaining is the time left before the weapon expires.
	Remaining float64
}

func (w Weapon) IsMine() bool { return w.Kind == WeaponMine }

type Snapshot struct {
	Tick     uint64
	Self     PlayerID
	Players  []Player
	Weapons  []Weapon
	Map      tilemap.Map
	Settings Settings
}

// Player resolves id against the snapshot.
func (s *Snapshot) Player(id PlayerID) (Player, bool) {
	if id == NoPlayer {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Me is the controlled player. The zero Player is returned when Self is missing.
func (s *Snapshot) Me() Player {
	p, _ := s.Player(s.Self)
	return p
}

func (s *Snapshot) MyShip() ShipSettings { return s.Settings.Ship(s.Me().Ship) }

// Enemies are players on another frequency that are in a ship.
func (s *Snapshot) Enemies() []Player {
	me := s.Me()
	var out []Player
	for _, p := range s.Players {
		if p.ID != me.ID && p.Frequency != me.Frequency && p.Ship != Spectator {
			out = append(out, p)
		}
	}
	return out
}

// EnemyWeapons are the weapons whose owner is on another frequency. Weapons of players no
// longer in the snapshot are skipped.
func (s *Snapshot) EnemyWeapons() []Weapon {
	me := s.Me()
	var out []Weapon
	for _, w := range s.Weapons {
		owner, ok := s.Player(w.Owner)
		if ok && owner.Frequency != me.Frequency {
			out = append(out, w)
		}
	}
	return out
}

// Team are the other players on the bot's frequency that are in a ship.
func (s *Snapshot) Team() []Player {
	me := s.Me()
	var out []Player
	for _, p := range s.Players {
		if p.ID != me.ID && p.Frequency == me.Frequency && p.Ship != Spectator {
			out = append(out, p)
		}
	}
	return out
}
