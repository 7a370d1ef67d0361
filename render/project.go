package render

import (
	"math"

	"github.com/binzume/bvhkit/geom"
)

// Camera is an orthographic view direction. Angles are in degrees.
type Camera struct {
	Yaw   float64
	Pitch float64
}

// Project rotates points by yaw (around Y) then pitch (around X) and drops Z.
func Project(points []geom.Vector3, cam Camera) []geom.Vector2 {
	r := geom.ComposeRotation([]geom.AxisAngle{
		{Axis: geom.AxisX, Degrees: cam.Pitch},
		{Axis: geom.AxisY, Degrees: cam.Yaw},
	})
	out := make([]geom.Vector2, len(points))
	for i := range points {
		v := r.ApplyTo(&points[i])
		out[i] = geom.Vector2{X: v.X, Y: v.Y}
	}
	return out
}

// Viewport maps projected coordinates to pixels with Y pointing down.
type Viewport struct {
	Width, Height int
	Center        geom.Vector2
	Scale         float64
}

// FitViewport returns a viewport that shows every point with margin pixels
// left free on each side.
func FitViewport(points []geom.Vector2, width, height, margin int) *Viewport {
	vp := &Viewport{Width: width, Height: height, Scale: 1}
	if len(points) == 0 {
		return vp
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	vp.Center = geom.Vector2{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}

	dx, dy := math.Max(hi.X-lo.X, 1), math.Max(hi.Y-lo.Y, 1)
	w, h := float64(width-2*margin), float64(height-2*margin)
	if w <= 0 || h <= 0 {
		w, h = float64(width), float64(height)
	}
	vp.Scale = math.Min(w/dx, h/dy)
	return vp
}

// ToScreen converts a projected point to integer pixel coordinates.
func (vp *Viewport) ToScreen(p geom.Vector2) (int, int) {
	x := float64(vp.Width)/2 + (p.X-vp.Center.X)*vp.Scale
	y := float64(vp.Height)/2 - (p.Y-vp.Center.Y)*vp.Scale
	return int(math.Round(x)), int(math.Round(y))
}

// Line calls plot for every cell on the segment (x0,y0)-(x1,y1), endpoints
// included.
func Line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}
