package geom

import "math"

type Vector4 struct {
	X Element
	Y Element
	Z Element
	W Element
}

type Quaternion = Vector4

func (v *Vector4) Dot(v2 *Vector4) Element {
	return v.X*v2.X + v.Y*v2.Y + v.Z*v2.Z + v.W*v2.W
}

func (v *Vector4) Len() Element {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)
}

func (v *Vector4) Normalize() *Vector4 {
	l := v.Len()
	if l > 0 {
		v.X /= l
		v.Y /= l
		v.Z /= l
		v.W /= l
	} else {
		v.W = 1
	}
	return v
}

// Neg returns -v. For a unit quaternion this is the same rotation.
func (v *Vector4) Neg() *Vector4 {
	return &Vector4{X: -v.X, Y: -v.Y, Z: -v.Z, W: -v.W}
}

// Nearest returns q or -q, whichever is closer to prev.
func (q *Quaternion) Nearest(prev *Quaternion) *Quaternion {
	if prev != nil && q.Dot(prev) < 0 {
		return q.Neg()
	}
	return q
}

func (v *Vector4) Float32() [4]float32 {
	return [4]float32{float32(v.X), float32(v.Y), float32(v.Z), float32(v.W)}
}
