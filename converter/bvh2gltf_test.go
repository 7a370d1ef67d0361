package converter

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/binzume/bvhkit/bvh"
	"github.com/qmuntal/gltf"
)

func loadChain(t *testing.T) *bvh.Motion {
	t.Helper()
	m, err := bvh.Load("../testdata/chain.bvh")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBVHToGLTF(t *testing.T) {
	m := loadChain(t)
	doc, err := BVHToGLTF(m, &BVHToGLTFOption{EndSites: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Nodes) != 6 {
		t.Fatal("nodes", len(doc.Nodes))
	}
	if len(doc.Scenes[0].Nodes) != 1 || doc.Scenes[0].Nodes[0] != 0 {
		t.Error("scene roots", doc.Scenes[0].Nodes)
	}
	spine := doc.Nodes[1]
	if spine.Name != "Spine" || math.Abs(float64(spine.Translation[1])-0.1) > 1e-6 || spine.Translation[0] != 0 {
		t.Error("spine node", spine.Name, spine.Translation)
	}
	hips := doc.Nodes[0]
	if len(hips.Children) != 2 {
		t.Error("hips children", hips.Children)
	}

	if len(doc.Animations) != 1 {
		t.Fatal("animations", len(doc.Animations))
	}
	a := doc.Animations[0]
	// 4 rotation channels + root translation
	if len(a.Channels) != 5 || len(a.Samplers) != 5 {
		t.Error("channels", len(a.Channels), len(a.Samplers))
	}
	var translations int
	for _, ch := range a.Channels {
		if ch.Target.Path == gltf.TRSTranslation {
			translations++
			if *ch.Target.Node != 0 {
				t.Error("translation target", *ch.Target.Node)
			}
		}
	}
	if translations != 1 {
		t.Error("translation channels", translations)
	}
	if keys := doc.Accessors[*a.Samplers[0].Input]; keys.Count != 3 {
		t.Error("keyframes", keys.Count)
	}
}

func TestBVHToGLTFNoFrames(t *testing.T) {
	m := loadChain(t)
	m.Frames = nil
	doc, err := BVHToGLTF(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 4 || len(doc.Animations) != 0 {
		t.Error("nodes/animations", len(doc.Nodes), len(doc.Animations))
	}
}

func TestWriteGLB(t *testing.T) {
	doc, err := BVHToGLTF(loadChain(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGLB(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Error("missing GLB magic")
	}
}

func TestBVHToGLTFSamples(t *testing.T) {
	m := loadChain(t)
	doc, err := BVHToGLTF(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	a := doc.Animations[0]

	head := FindChannel(a, 2, gltf.TRSRotation)
	if head == nil {
		t.Fatal("no rotation channel for Head")
	}
	rot, err := ReadRotations(doc, a, head)
	if err != nil {
		t.Fatal(err)
	}
	// frame 1: Zrotation 90
	s := float32(math.Sqrt(0.5))
	want := [4]float32{0, 0, s, s}
	for i := range want {
		if math.Abs(float64(rot[1][i]-want[i])) > 1e-5 {
			t.Fatal("head rotation", rot[1])
		}
	}

	root := FindChannel(a, 0, gltf.TRSTranslation)
	if root == nil {
		t.Fatal("no translation channel for Hips")
	}
	pos, err := ReadTranslations(doc, a, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 3 || math.Abs(float64(pos[2][0])-0.02) > 1e-6 {
		t.Error("hips translation", pos)
	}

	if FindChannel(a, 5, gltf.TRSRotation) != nil {
		t.Error("unexpected channel")
	}
}

func TestBVHToGLTFRotationContinuity(t *testing.T) {
	src := "HIERARCHY\nROOT A\n{\n\tOFFSET 0 0 0\n\tCHANNELS 3 Zrotation Xrotation Yrotation\n}\n" +
		"MOTION\nFrames: 5\nFrame Time: 0.1\n0 0 0\n90 0 0\n180 0 0\n270 0 0\n360 0 0\n"
	m, err := bvh.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := BVHToGLTF(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	a := doc.Animations[0]
	rot, err := ReadRotations(doc, a, FindChannel(a, 0, gltf.TRSRotation))
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(rot); i++ {
		var dot float32
		for k := range rot[i] {
			dot += rot[i][k] * rot[i-1][k]
		}
		if dot <= 0 {
			t.Errorf("keys %d and %d in opposite hemispheres: %v %v", i-1, i, rot[i-1], rot[i])
		}
	}
	s := float32(math.Sqrt(0.5))
	want := [4]float32{0, 0, s, -s}
	for i := range want {
		if math.Abs(float64(rot[3][i]-want[i])) > 1e-5 {
			t.Fatal("270 degree key", rot[3])
		}
	}
}

func TestSaveAndLoadGLTF(t *testing.T) {
	doc, err := BVHToGLTF(loadChain(t), &BVHToGLTFOption{EndSites: true})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	for _, name := range []string{"chain.glb", "chain.gltf"} {
		path := filepath.Join(dir, name)
		if err := SaveGLTF(doc, path); err != nil {
			t.Fatal(err)
		}
		back, err := LoadGLTF(path)
		if err != nil {
			t.Fatal(name, err)
		}
		if len(back.Nodes) != 6 || len(back.Animations) != 1 {
			t.Error(name, len(back.Nodes), len(back.Animations))
		}
	}
}
