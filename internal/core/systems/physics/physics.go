package physics

import "math"

// Vec2 is a 2D vector in tile units.
type Vec2 struct{ X, Y float64 }

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2           { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2           { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2      { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64        { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64      { return v.X*o.Y - v.Y*o.X }
func (v Vec2) LengthSq() float64         { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Length() float64           { return math.Hypot(v.X, v.Y) }
func (v Vec2) Perpendicular() Vec2       { return Vec2{-v.Y, v.X} }
func (v Vec2) IsZero() bool              { return v.X == 0 && v.Y == 0 }
func (v Vec2) Equal(o Vec2) bool         { return v.X == o.X && v.Y == o.Y }
func (v Vec2) DistanceTo(o Vec2) float64 { return Distance2(v.X, v.Y, o.X, o.Y) }

// Normalize returns the unit vector of v, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Truncate clamps the length of v to max.
func (v Vec2) Truncate(max float64) Vec2 {
	if l := v.Length(); l > max && l > 0 {
		return v.Scale(max / l)
	}
	return v
}

// Rotate rotates v counter-clockwise by rad radians.
func (v Vec2) Rotate(rad float64) Vec2 {
	s, c := math.Sincos(rad)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Floor returns the integer tile coordinates containing v.
func (v Vec2) Floor() (int, int) { return int(math.Floor(v.X)), int(math.Floor(v.Y)) }

// Heading converts a heading angle to a unit vector. Angle 0 points up (negative Y),
// growing clockwise.
func Heading(rad float64) Vec2 {
	s, c := math.Sincos(rad)
	return Vec2{s, -c}
}

// HeadingAngle is the inverse of Heading.
func HeadingAngle(dir Vec2) float64 {
	return math.Atan2(dir.X, -dir.Y)
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Body is a point mass integrated by the simulation harness.
type Body struct {
	Position Vec2
	Velocity Vec2
	Heading  float64
}

// Integrate applies thrust for dt seconds and clamps the resulting speed.
func (b *Body) Integrate(thrust Vec2, turn float64, maxSpeed, dt float64) {
	b.Heading = math.Mod(b.Heading+turn*dt, 2*math.Pi)
	if b.Heading < 0 {
		b.Heading += 2 * math.Pi
	}
	b.Velocity = b.Velocity.Add(thrust.Scale(dt)).Truncate(maxSpeed)
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}
