package geom

// Vector2 is a point on a projection plane.
type Vector2 struct {
	X Element
	Y Element
}
