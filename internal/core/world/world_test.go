package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

func TestSnapshotRosters(t *testing.T) {
	snap := Snapshot{
		Self: 1,
		Players: []Player{
			{ID: 1, Frequency: 0, Ship: Warbird},
			{ID: 2, Frequency: 0, Ship: Javelin},
			{ID: 3, Frequency: 1, Ship: Shark},
			{ID: 4, Frequency: 1, Ship: Spectator},
		},
		Settings: DefaultSettings(),
	}

	assert.Equal(t, PlayerID(1), snap.Me().ID)
	assert.Len(t, snap.Team(), 1)
	assert.Len(t, snap.Enemies(), 1)
	assert.Equal(t, PlayerID(3), snap.Enemies()[0].ID)

	_, ok := snap.Player(NoPlayer)
	assert.False(t, ok)
	_, ok = snap.Player(9)
	assert.False(t, ok)

	assert.Equal(t, snap.Settings.Ships[0], snap.Settings.Ship(Spectator))
	assert.True(t, snap.Settings.Ship(Javelin).DoubleBarrel)
}

func TestEnemyWeapons(t *testing.T) {
	snap := Snapshot{
		Self: 1,
		Players: []Player{
			{ID: 1, Frequency: 0},
			{ID: 2, Frequency: 0},
			{ID: 3, Frequency: 1},
		},
		Weapons: []Weapon{
			{Owner: 2, Kind: WeaponBullet},
			{Owner: 3, Kind: WeaponMine},
			{Owner: 7, Kind: WeaponBomb},
		},
	}
	enemy := snap.EnemyWeapons()
	assert.Len(t, enemy, 1)
	assert.True(t, enemy[0].IsMine())
	assert.Equal(t, PlayerID(3), enemy[0].Owner)
}

func TestKeys(t *testing.T) {
	var k Keys
	k.Press(KeyUp)
	k.Set(KeyGun, true)
	k.Set(KeyLeft, false)
	assert.True(t, k.Pressed(KeyUp))
	assert.True(t, k.Pressed(KeyGun))
	assert.False(t, k.Pressed(KeyLeft))
	assert.Equal(t, "up+gun", k.String())

	k.ReleaseAll()
	assert.Equal(t, Keys(0), k)
}

func TestPlayerDirection(t *testing.T) {
	p := Player{Heading: 0}
	assert.InDelta(t, -1, p.Direction().Y, 1e-9)
	assert.InDelta(t, 0, p.Direction().X, 1e-9)
	assert.InDelta(t, 0, p.Direction().Sub(physics.V(0, -1)).Length(), 1e-9)
}
