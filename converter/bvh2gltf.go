package converter

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type BVHToGLTFOption struct {
	Scale    float32 // Default: 0.01 (centimeters to meters)
	EndSites bool    // add a leaf node per End Site
	Name     string  // animation name
}

type bvhToGltf struct {
	*BVHToGLTFOption
	*gltf.Document
	motion    *bvh.Motion
	jointNode []uint32
}

// BVHToGLTF builds a document with one node per joint and a single
// animation sampling every frame.
func BVHToGLTF(m *bvh.Motion, opt *BVHToGLTFOption) (*gltf.Document, error) {
	if opt == nil {
		opt = &BVHToGLTFOption{}
	}
	o := *opt
	if o.Scale == 0 {
		o.Scale = 0.01
	}
	if o.Name == "" {
		o.Name = "motion"
	}

	c := &bvhToGltf{BVHToGLTFOption: &o, Document: gltf.NewDocument(), motion: m}
	c.addJointNodes()
	c.addAnimation()
	return c.Document, nil
}

func (c *bvhToGltf) scaled(v geom.Vector3) [3]float32 {
	return v.Scale(float64(c.Scale)).Float32()
}

func (c *bvhToGltf) addJointNodes() {
	joints := c.motion.Skeleton.Joints()
	c.jointNode = make([]uint32, len(joints))
	for _, j := range joints {
		c.jointNode[j.Index] = uint32(len(c.Nodes))
		c.Nodes = append(c.Nodes, &gltf.Node{Name: j.Name, Translation: c.scaled(j.Offset), Rotation: [4]float32{0, 0, 0, 1}})
	}

	for _, j := range joints {
		n := c.jointNode[j.Index]
		if j.Parent == nil {
			c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, n)
		} else {
			parent := c.Nodes[c.jointNode[j.Parent.Index]]
			parent.Children = append(parent.Children, n)
		}
		if c.EndSites && j.EndSite != nil {
			end := uint32(len(c.Nodes))
			c.Nodes = append(c.Nodes, &gltf.Node{Name: j.Name + "_end", Translation: c.scaled(*j.EndSite), Rotation: [4]float32{0, 0, 0, 1}})
			c.Nodes[n].Children = append(c.Nodes[n].Children, end)
		}
	}
}

func (c *bvhToGltf) addChannel(a *gltf.Animation, keys, samples uint32, node uint32, path gltf.TRSProperty) {
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(keys),
		Output:        gltf.Index(samples),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

func (c *bvhToGltf) addAnimation() {
	m := c.motion
	if m.FrameCount() == 0 {
		return
	}
	a := &gltf.Animation{Name: c.Name}

	keys := make([]float32, m.FrameCount())
	for i := range keys {
		keys[i] = float32(float64(i) * m.FrameTime)
	}
	keysAcc := modeler.WriteAccessor(c.Document, gltf.TargetArrayBuffer, keys)

	for _, j := range m.Skeleton.Joints() {
		var hasRotation, hasPosition bool
		for _, ch := range j.Channels {
			if ch.IsRotation() {
				hasRotation = true
			} else {
				hasPosition = true
			}
		}

		if hasRotation {
			rotations := make([][4]float32, len(m.Frames))
			var prev *geom.Quaternion
			for f, frame := range m.Frames {
				var steps []geom.AxisAngle
				for i, ch := range j.Channels {
					if ch.IsRotation() {
						steps = append(steps, geom.AxisAngle{Axis: ch.Axis(), Degrees: frame[j.ChannelOffset+i]})
					}
				}
				// Same matrix pose resolves with; keep keys in one hemisphere
				// so linear interpolation takes the short path.
				q := geom.ComposeRotation(steps).ToQuaternion().Nearest(prev)
				rotations[f] = q.Float32()
				prev = q
			}
			c.addChannel(a, keysAcc, modeler.WriteTangent(c.Document, rotations), c.jointNode[j.Index], gltf.TRSRotation)
		}

		if hasPosition {
			translations := make([][3]float32, len(m.Frames))
			for f, frame := range m.Frames {
				t := j.Offset
				for i, ch := range j.Channels {
					v := frame[j.ChannelOffset+i]
					switch ch {
					case bvh.PositionX:
						t.X += v
					case bvh.PositionY:
						t.Y += v
					case bvh.PositionZ:
						t.Z += v
					}
				}
				translations[f] = c.scaled(t)
			}
			c.addChannel(a, keysAcc, modeler.WritePosition(c.Document, translations), c.jointNode[j.Index], gltf.TRSTranslation)
		}
	}

	if len(a.Channels) > 0 {
		c.Animations = append(c.Animations, a)
	}
}

// WriteGLB writes doc as binary glTF.
func WriteGLB(w io.Writer, doc *gltf.Document) error {
	e := gltf.NewEncoder(w)
	e.AsBinary = true
	return e.Encode(doc)
}

// SaveGLTF writes doc to path. ".gltf" produces JSON with embedded buffers,
// anything else a GLB file.
func SaveGLTF(doc *gltf.Document, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".gltf" {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
		return gltf.Save(doc, path)
	}
	return gltf.SaveBinary(doc, path)
}
