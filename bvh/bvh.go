package bvh

import (
	"fmt"

	"github.com/binzume/bvhkit/geom"
)

type ChannelKind int

const (
	PositionX ChannelKind = iota
	PositionY
	PositionZ
	RotationX
	RotationY
	RotationZ
)

var channelNames = [...]string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func (c ChannelKind) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("ChannelKind(%d)", int(c))
	}
	return channelNames[c]
}

func (c ChannelKind) IsRotation() bool {
	return c >= RotationX
}

func (c ChannelKind) Axis() geom.Axis {
	return geom.Axis(int(c) % 3)
}

// ParseChannelKind accepts the exact (case-sensitive) BVH channel tokens.
func ParseChannelKind(s string) (ChannelKind, bool) {
	for i, n := range channelNames {
		if n == s {
			return ChannelKind(i), true
		}
	}
	return 0, false
}

type Joint struct {
	Name     string
	Offset   geom.Vector3
	Channels []ChannelKind
	EndSite  *geom.Vector3

	Parent   *Joint
	Children []*Joint

	// Index is the pre-order position in the skeleton.
	Index int
	// ChannelOffset is the index of the first channel in a frame vector.
	ChannelOffset int
}

func (j *Joint) IsRoot() bool {
	return j.Parent == nil
}

func (j *Joint) AddChild(c *Joint) {
	c.Parent = j
	j.Children = append(j.Children, c)
}

// ChannelIndex returns the position of kind in the joint's channel list, or -1.
func (j *Joint) ChannelIndex(kind ChannelKind) int {
	for i, c := range j.Channels {
		if c == kind {
			return i
		}
	}
	return -1
}

// RotationOrder returns the rotation axes in declared order.
func (j *Joint) RotationOrder() geom.RotationOrder {
	var order geom.RotationOrder
	for _, c := range j.Channels {
		if c.IsRotation() {
			order = append(order, c.Axis())
		}
	}
	return order
}

// Skeleton is an immutable joint tree.
type Skeleton struct {
	root     *Joint
	joints   []*Joint
	byName   map[string]*Joint
	channels int
}

// NewSkeleton indexes the tree under root and assigns channel offsets in
// pre-order.
func NewSkeleton(root *Joint) (*Skeleton, error) {
	if root == nil {
		return nil, fmt.Errorf("bvh: nil root joint")
	}
	if root.Parent != nil {
		return nil, fmt.Errorf("bvh: root joint %q has a parent", root.Name)
	}
	s := &Skeleton{root: root, byName: map[string]*Joint{}}
	var walk func(j *Joint) error
	walk = func(j *Joint) error {
		if _, dup := s.byName[j.Name]; dup {
			return fmt.Errorf("bvh: duplicate joint name %q", j.Name)
		}
		j.Index = len(s.joints)
		j.ChannelOffset = s.channels
		s.channels += len(j.Channels)
		s.joints = append(s.joints, j)
		s.byName[j.Name] = j
		for _, c := range j.Children {
			if c.Parent != j {
				return fmt.Errorf("bvh: joint %q has inconsistent parent", c.Name)
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Skeleton) Root() *Joint {
	return s.root
}

// Joints returns all joints in pre-order. Parents always precede children.
func (s *Skeleton) Joints() []*Joint {
	return s.joints
}

func (s *Skeleton) Joint(name string) *Joint {
	return s.byName[name]
}

// ChannelCount is the length of every frame vector.
func (s *Skeleton) ChannelCount() int {
	return s.channels
}

func (s *Skeleton) Depth(j *Joint) int {
	d := 0
	for p := j.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Scaled returns a deep copy with offsets multiplied by f.
func (s *Skeleton) Scaled(f float64) *Skeleton {
	var clone func(j *Joint) *Joint
	clone = func(j *Joint) *Joint {
		c := &Joint{
			Name:     j.Name,
			Offset:   *j.Offset.Scale(f),
			Channels: append([]ChannelKind(nil), j.Channels...),
		}
		if j.EndSite != nil {
			c.EndSite = j.EndSite.Scale(f)
		}
		for _, child := range j.Children {
			c.AddChild(clone(child))
		}
		return c
	}
	r, _ := NewSkeleton(clone(s.root))
	return r
}

// Motion is a skeleton plus its frame vectors.
type Motion struct {
	Skeleton  *Skeleton
	FrameTime float64
	Frames    [][]float64
}

func (m *Motion) FrameCount() int {
	return len(m.Frames)
}

func (m *Motion) Duration() float64 {
	return float64(len(m.Frames)) * m.FrameTime
}

func (m *Motion) Frame(i int) ([]float64, error) {
	if i < 0 || i >= len(m.Frames) {
		return nil, &OutOfRangeError{Index: i, Count: len(m.Frames)}
	}
	return m.Frames[i], nil
}

// JointChannels returns the slice of frame i that belongs to the named joint.
func (m *Motion) JointChannels(i int, name string) ([]float64, error) {
	j := m.Skeleton.Joint(name)
	if j == nil {
		return nil, &UnknownJointError{Name: name}
	}
	f, err := m.Frame(i)
	if err != nil {
		return nil, err
	}
	return f[j.ChannelOffset : j.ChannelOffset+len(j.Channels)], nil
}

// ChannelSeries returns one channel of a joint over all frames.
func (m *Motion) ChannelSeries(name string, kind ChannelKind) ([]float64, error) {
	j := m.Skeleton.Joint(name)
	if j == nil {
		return nil, &UnknownJointError{Name: name}
	}
	ci := j.ChannelIndex(kind)
	if ci < 0 {
		return nil, fmt.Errorf("bvh: joint %q has no %v channel", name, kind)
	}
	series := make([]float64, len(m.Frames))
	for i, f := range m.Frames {
		series[i] = f[j.ChannelOffset+ci]
	}
	return series, nil
}

// Scaled returns a copy with offsets and position channels multiplied by f.
func (m *Motion) Scaled(f float64) *Motion {
	skel := m.Skeleton.Scaled(f)
	frames := make([][]float64, len(m.Frames))
	for i, src := range m.Frames {
		dst := append([]float64(nil), src...)
		for _, j := range skel.Joints() {
			for ci, c := range j.Channels {
				if !c.IsRotation() {
					dst[j.ChannelOffset+ci] *= f
				}
			}
		}
		frames[i] = dst
	}
	return &Motion{Skeleton: skel, FrameTime: m.FrameTime, Frames: frames}
}
