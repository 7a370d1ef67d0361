// Package pose resolves world-space joint transforms from BVH frame vectors.
package pose

import (
	"fmt"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
)

// ChannelCountMismatch reports a frame vector that does not fit the skeleton.
type ChannelCountMismatch struct {
	Joint string // empty when the whole frame has the wrong length
	Want  int
	Got   int
}

func (e *ChannelCountMismatch) Error() string {
	if e.Joint != "" {
		return fmt.Sprintf("pose: joint %q needs %d values, frame has %d", e.Joint, e.Want, e.Got)
	}
	return fmt.Sprintf("pose: frame has %d values, skeleton has %d channels", e.Got, e.Want)
}

// Pose holds the world transform of every joint for one frame.
type Pose struct {
	Skeleton *bvh.Skeleton
	// World is indexed by Joint.Index.
	World []*geom.Matrix4
}

// Bone is a drawable segment between a joint and its parent or end site.
type Bone struct {
	Joint   *bvh.Joint
	From    geom.Vector3
	To      geom.Vector3
	EndSite bool
}

// Length is the distance between the bone's endpoints.
func (b Bone) Length() float64 {
	return b.To.Sub(&b.From).Len()
}

func localTransform(j *bvh.Joint, values []float64) *geom.Matrix4 {
	t := j.Offset
	var steps []geom.AxisAngle
	for i, c := range j.Channels {
		v := values[i]
		switch c {
		case bvh.PositionX:
			t.X += v
		case bvh.PositionY:
			t.Y += v
		case bvh.PositionZ:
			t.Z += v
		default:
			steps = append(steps, geom.AxisAngle{Axis: c.Axis(), Degrees: v})
		}
	}
	return geom.NewTranslateMatrix4(t.X, t.Y, t.Z).Mul(geom.ComposeRotation(steps))
}

// Resolve computes world transforms for frame. Rotations are composed in
// each joint's declared channel order; a child's world transform is
// parent world * T(offset) * R.
func Resolve(skel *bvh.Skeleton, frame []float64) (*Pose, error) {
	if len(frame) != skel.ChannelCount() {
		return nil, &ChannelCountMismatch{Want: skel.ChannelCount(), Got: len(frame)}
	}
	joints := skel.Joints()
	p := &Pose{Skeleton: skel, World: make([]*geom.Matrix4, len(joints))}
	for _, j := range joints {
		end := j.ChannelOffset + len(j.Channels)
		if j.ChannelOffset < 0 || end > len(frame) {
			return nil, &ChannelCountMismatch{Joint: j.Name, Want: end, Got: len(frame)}
		}
		local := localTransform(j, frame[j.ChannelOffset:end])
		if j.Parent == nil {
			p.World[j.Index] = local
		} else {
			p.World[j.Index] = p.World[j.Parent.Index].Mul(local)
		}
	}
	return p, nil
}

// ResolveFrame resolves frame i of m.
func ResolveFrame(m *bvh.Motion, i int) (*Pose, error) {
	frame, err := m.Frame(i)
	if err != nil {
		return nil, err
	}
	return Resolve(m.Skeleton, frame)
}

// Position returns the world position of the named joint.
func (p *Pose) Position(name string) (geom.Vector3, bool) {
	j := p.Skeleton.Joint(name)
	if j == nil {
		return geom.Vector3{}, false
	}
	return *p.World[j.Index].Translation(), true
}

// Positions maps joint names to world positions.
func (p *Pose) Positions() map[string]geom.Vector3 {
	r := make(map[string]geom.Vector3, len(p.World))
	for _, j := range p.Skeleton.Joints() {
		r[j.Name] = *p.World[j.Index].Translation()
	}
	return r
}

// EndSite returns the world position of j's end site.
func (p *Pose) EndSite(j *bvh.Joint) (geom.Vector3, bool) {
	if j.EndSite == nil {
		return geom.Vector3{}, false
	}
	return *p.World[j.Index].ApplyTo(j.EndSite), true
}

// Bones returns parent-child segments followed by end-site segments, in
// joint order.
func (p *Pose) Bones() []Bone {
	var bones []Bone
	for _, j := range p.Skeleton.Joints() {
		pos := *p.World[j.Index].Translation()
		if j.Parent != nil {
			bones = append(bones, Bone{Joint: j, From: *p.World[j.Parent.Index].Translation(), To: pos})
		}
		if e, ok := p.EndSite(j); ok {
			bones = append(bones, Bone{Joint: j, From: pos, To: e, EndSite: true})
		}
	}
	return bones
}

// Points returns every joint and end-site position.
func (p *Pose) Points() []geom.Vector3 {
	pts := make([]geom.Vector3, 0, len(p.World))
	for _, j := range p.Skeleton.Joints() {
		pts = append(pts, *p.World[j.Index].Translation())
		if e, ok := p.EndSite(j); ok {
			pts = append(pts, e)
		}
	}
	return pts
}
