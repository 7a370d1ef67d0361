package geom

import "math"

// column-major matrix
type Matrix4 [16]Element

func NewMatrix4() *Matrix4 {
	return &Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func NewTranslateMatrix4(x, y, z Element) *Matrix4 {
	return &Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// NewAxisRotationMatrix4 returns the rotation of deg degrees around axis.
// This is the only place BVH degrees become radians.
func NewAxisRotationMatrix4(axis Axis, deg Element) *Matrix4 {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	switch axis {
	case AxisX:
		return &Matrix4{
			1, 0, 0, 0,
			0, c, s, 0,
			0, -s, c, 0,
			0, 0, 0, 1,
		}
	case AxisY:
		return &Matrix4{
			c, 0, -s, 0,
			0, 1, 0, 0,
			s, 0, c, 0,
			0, 0, 0, 1,
		}
	default:
		return &Matrix4{
			c, s, 0, 0,
			-s, c, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}
	}
}

// Mul returns b*a.
func (b *Matrix4) Mul(a *Matrix4) *Matrix4 {
	r := &Matrix4{}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum Element
			for k := 0; k < 4; k++ {
				sum += b[k*4+row] * a[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// Translation returns the translation part of an affine matrix.
func (m *Matrix4) Translation() *Vector3 {
	return &Vector3{X: m[12], Y: m[13], Z: m[14]}
}

// ToQuaternion extracts the rotation of a matrix without scale.
func (m *Matrix4) ToQuaternion() *Quaternion {
	m00, m11, m22 := m[0], m[5], m[10]
	trace := m00 + m11 + m22
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quaternion{W: 0.25 / s, X: (m[6] - m[9]) * s, Y: (m[8] - m[2]) * s, Z: (m[1] - m[4]) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{W: (m[6] - m[9]) / s, X: 0.25 * s, Y: (m[4] + m[1]) / s, Z: (m[8] + m[2]) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{W: (m[8] - m[2]) / s, X: (m[4] + m[1]) / s, Y: 0.25 * s, Z: (m[9] + m[6]) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{W: (m[1] - m[4]) / s, X: (m[8] + m[2]) / s, Y: (m[9] + m[6]) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}
