package bot

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

// Steering accumulates a movement force and a facing rotation during one tick and converts
// them into arrow keys at the end of it.
type Steering struct {
	self     world.Player
	ship     world.ShipSettings
	force    physics.Vec2
	rotation float64
}

// Reset clears the accumulated force and rotation and binds the controlled player for the
// coming tick.
func (s *Steering) Reset(self world.Player, ship world.ShipSettings) {
	s.self, s.ship = self, ship
	s.force = physics.Vec2{}
	s.rotation = 0
}

func (s *Steering) Force() physics.Vec2 { return s.force }
func (s *Steering) Rotation() float64   { return s.rotation }

// maxSpeed is the ship's initial speed, or its top speed once it already flies faster.
func (s *Steering) maxSpeed() float64 {
	if s.self.Velocity.Length() > s.ship.InitialSpeed {
		return s.ship.MaxSpeed
	}
	return s.ship.InitialSpeed
}

func (s *Steering) Seek(target physics.Vec2, multiplier float64) {
	speed := (s.ship.MaxSpeed + 5) * multiplier
	desired := target.Sub(s.self.Position).Normalize().Scale(speed)
	s.force = s.force.Add(desired.Sub(s.self.Velocity))
}

func (s *Steering) Flee(target physics.Vec2) {
	desired := s.self.Position.Sub(target).Normalize().Scale(s.maxSpeed())
	s.force = s.force.Add(desired.Sub(s.self.Velocity))
}

// Arrive seeks target and slows down as it gets close. Larger deceleration brakes earlier.
func (s *Steering) Arrive(target physics.Vec2, deceleration float64) {
	toTarget := target.Sub(s.self.Position)
	distance := toTarget.Length()
	if distance > 0 {
		speed := math.Min(distance/deceleration, s.maxSpeed())
		desired := toTarget.Scale(speed / distance)
		s.force = s.force.Add(desired.Sub(s.self.Velocity))
	} else {
		s.force = s.force.Sub(s.self.Velocity)
	}
}

// Pursue seeks where enemy will be, or straight at it when the two ships face each other.
func (s *Steering) Pursue(enemy world.Player) {
	heading := s.self.Direction()
	toEnemy := enemy.Position.Sub(s.self.Position)
	if toEnemy.Dot(heading) > 0 && heading.Dot(enemy.Direction()) < -0.95 {
		s.Seek(enemy.Position, 1)
		return
	}
	t := toEnemy.Length() / (s.maxSpeed() + enemy.Velocity.Length())
	s.Seek(enemy.Position.Add(enemy.Velocity.Scale(t)), 1)
}

// Face adds the rotation that turns the ship's heading toward target.
func (s *Steering) Face(target physics.Vec2) {
	toTarget := target.Sub(s.self.Position)
	if toTarget.IsZero() {
		return
	}
	heading := s.self.Direction().Rotate(-s.rotation)
	rotation := math.Atan2(heading.Y, heading.X) - math.Atan2(toTarget.Y, toTarget.X)
	s.rotation += wrapToPi(rotation)
}

// Steer converts the accumulated force and rotation into arrow keys. With backwards the ship
// keeps its nose away from the force and reverses into it.
func (s *Steering) Steer(backwards bool) world.Keys {
	var keys world.Keys

	heading := s.self.Direction()
	if backwards {
		heading = heading.Scale(-1)
	}

	direction := heading
	hasForce := s.force.LengthSq() > 0
	if hasForce {
		direction = s.force.Normalize()
	}

	rotateTarget := direction
	if s.rotation != 0 {
		rotateTarget = heading.Rotate(-s.rotation)
	}
	if !hasForce {
		direction = rotateTarget
	}

	perp := heading.Perpendicular()
	behind := s.force.Dot(heading) < 0
	leftside := direction.Dot(perp) < 0

	// keep the movement direction within reach of the facing target
	if direction.Dot(rotateTarget) < 0.75 {
		sign := -1.0
		if leftside {
			sign = 1
		}
		if behind {
			sign = -sign
		}
		direction = rotateTarget.Rotate(0.1 * sign)
		leftside = direction.Dot(perp) < 0
	}

	clockwise := !leftside
	if backwards {
		behind = !behind
	}

	if hasForce {
		if behind {
			keys.Press(world.KeyDown)
		} else {
			keys.Press(world.KeyUp)
		}
	}

	// closer than this and the ship wobbles around the target heading
	if heading.Dot(direction) < 0.996 {
		keys.Set(world.KeyRight, clockwise)
		keys.Set(world.KeyLeft, !clockwise)
	}
	return keys
}

func wrapToPi(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
