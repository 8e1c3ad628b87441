package bot

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

// Shot is a linear intercept solution.
type Shot struct {
	Solution physics.Vec2
	Hit      bool
	// Time is the projectile flight time to Solution, in seconds.
	Time float64
}

// CalculateShot finds where a projectile fired from shooter at speed will meet target,
// assuming both keep their velocities. The projectile inherits the shooter's velocity.
func CalculateShot(shooter, target, shooterVel, targetVel physics.Vec2, speed float64) Shot {
	d := target.Sub(shooter)
	v := targetVel.Sub(shooterVel)

	a := v.Dot(v) - speed*speed
	b := 2 * v.Dot(d)
	c := d.Dot(d)

	t := -1.0
	if math.Abs(a) < 1e-9 {
		if b != 0 {
			t = -c / b
		}
	} else {
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			t1 := (-b - sq) / (2 * a)
			t2 := (-b + sq) / (2 * a)
			switch {
			case t1 > 0 && t2 > 0:
				t = math.Min(t1, t2)
			case t1 > 0:
				t = t1
			case t2 > 0:
				t = t2
			}
		}
	}

	if t <= 0 {
		return Shot{Solution: target}
	}
	return Shot{Solution: target.Add(v.Scale(t)), Hit: true, Time: t}
}

// RayBoxIntersect tests the ray origin+dir*t against the axis aligned square of half size
// extent around center and returns the entry distance.
func RayBoxIntersect(origin, dir, center physics.Vec2, extent float64) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)

	for _, axis := range [2]struct{ o, d, lo, hi float64 }{
		{origin.X, dir.X, center.X - extent, center.X + extent},
		{origin.Y, dir.Y, center.Y - extent, center.Y + extent},
	} {
		if axis.d == 0 {
			if axis.o < axis.lo || axis.o > axis.hi {
				return 0, false
			}
			continue
		}
		t1 := (axis.lo - axis.o) / axis.d
		t2 := (axis.hi - axis.o) / axis.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	return math.Max(tmin, 0), true
}

// canShoot reports whether a projectile launched at velocity reaches target before expiring.
func canShoot(from, target, velocity physics.Vec2, aliveTime float64) bool {
	return from.DistanceTo(target) <= velocity.Scale(aliveTime).Length()
}
