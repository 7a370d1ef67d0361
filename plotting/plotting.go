// Package plotting draws BVH channel curves and joint trajectories.
package plotting

import (
	"fmt"
	"io"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/pose"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DefaultSize is the edge length used by WritePNG when none is given.
const DefaultSize = 6 * vg.Inch

func addLine(p *plot.Plot, i int, name string, pts plotter.XYs) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(i)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// ChannelPlot plots channel values of joint against time. With no kinds,
// every channel the joint declares is plotted.
func ChannelPlot(m *bvh.Motion, joint string, kinds ...bvh.ChannelKind) (*plot.Plot, error) {
	j := m.Skeleton.Joint(joint)
	if j == nil {
		return nil, &bvh.UnknownJointError{Name: joint}
	}
	if len(kinds) == 0 {
		kinds = j.Channels
	}

	p := plot.New()
	p.Title.Text = joint
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"

	for i, k := range kinds {
		series, err := m.ChannelSeries(joint, k)
		if err != nil {
			return nil, err
		}
		pts := make(plotter.XYs, len(series))
		for f, v := range series {
			pts[f].X = float64(f) * m.FrameTime
			pts[f].Y = v
		}
		if err := addLine(p, i, k.String(), pts); err != nil {
			return nil, fmt.Errorf("plot %s: %w", k, err)
		}
	}
	return p, nil
}

// TrajectoryPlot plots the world position of joint projected on the plane
// spanned by axes a and b.
func TrajectoryPlot(m *bvh.Motion, joint string, a, b geom.Axis) (*plot.Plot, error) {
	if m.Skeleton.Joint(joint) == nil {
		return nil, &bvh.UnknownJointError{Name: joint}
	}

	pts := make(plotter.XYs, m.FrameCount())
	for i := range m.Frames {
		ps, err := pose.ResolveFrame(m, i)
		if err != nil {
			return nil, err
		}
		v, _ := ps.Position(joint)
		pts[i].X = v.Get(a)
		pts[i].Y = v.Get(b)
	}

	p := plot.New()
	p.Title.Text = joint + " trajectory"
	p.X.Label.Text = a.String()
	p.Y.Label.Text = b.String()
	if err := addLine(p, 0, joint, pts); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes p to path; the format follows the file extension.
func Save(p *plot.Plot, w, h vg.Length, path string) error {
	return p.Save(w, h, path)
}

// WritePNG renders p as PNG into w.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	if width == 0 {
		width = DefaultSize
	}
	if height == 0 {
		height = width * 2 / 3
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
