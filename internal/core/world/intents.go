package world

import (
	"strings"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

// Key is a logical input the output layer translates to the game client.
type Key uint16

const (
	KeyUp Key = 1 << iota
	KeyDown
	KeyLeft
	KeyRight
	KeyGun
	KeyBomb
	KeyRepel
	KeyCloak
	KeyAfterburner
	KeyMine
)

var keyNames = []struct {
	k    Key
	name string
}{
	{KeyUp, "up"}, {KeyDown, "down"}, {KeyLeft, "left"}, {KeyRight, "right"},
	{KeyGun, "gun"}, {KeyBomb, "bomb"}, {KeyRepel, "repel"}, {KeyCloak, "cloak"},
	{KeyAfterburner, "afterburner"}, {KeyMine, "mine"},
}

type Keys uint16

func (k *Keys) Press(key Key)       { *k |= Keys(key) }
func (k *Keys) Release(key Key)     { *k &^= Keys(key) }
func (k Keys) Pressed(key Key) bool { return k&Keys(key) != 0 }
func (k *Keys) ReleaseAll()         { *k = 0 }

func (k *Keys) Set(key Key, down bool) {
	if down {
		k.Press(key)
	} else {
		k.Release(key)
	}
}

func (k Keys) String() string {
	var parts []string
	for _, kn := range keyNames {
		if k.Pressed(kn.k) {
			parts = append(parts, kn.name)
		}
	}
	return strings.Join(parts, "+")
}

// Intents is everything an agent asks the game to do this tick.
type Intents struct {
	Force    physics.Vec2
	Rotation float64
	Keys     Keys

	ShipRequest    Ship
	HasShipRequest bool
	FreqRequest    Frequency
	HasFreqRequest bool
}

func (i *Intents) RequestShip(s Ship) {
	i.ShipRequest, i.HasShipRequest = s, true
}

func (i *Intents) RequestFreq(f Frequency) {
	i.FreqRequest, i.HasFreqRequest = f, true
}
