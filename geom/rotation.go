package geom

import "strings"

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [...]string{"X", "Y", "Z"}[a]
}

// AxisAngle is a single rotation step in degrees.
type AxisAngle struct {
	Axis    Axis
	Degrees Element
}

// RotationOrder is an axis sequence such as ZXY. The first axis is the
// outermost factor of the composed rotation.
type RotationOrder []Axis

func (o RotationOrder) String() string {
	var sb strings.Builder
	for _, a := range o {
		sb.WriteString(a.String())
	}
	return sb.String()
}

// ComposeRotation multiplies the steps left to right: R = R0 * R1 * ... * Rn.
func ComposeRotation(steps []AxisAngle) *Matrix4 {
	m := NewMatrix4()
	for _, s := range steps {
		m = m.Mul(NewAxisRotationMatrix4(s.Axis, s.Degrees))
	}
	return m
}
