package pose

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
)

const eps = 0.000001

func mustParse(t *testing.T, src string) *bvh.Motion {
	t.Helper()
	m, err := bvh.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return m
}

func near(a, b geom.Vector3) bool {
	return a.Sub(&b).Len() < eps
}

const twoJoints = `HIERARCHY
ROOT Root
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Xrotation Yrotation Zrotation
	JOINT Child
	{
		OFFSET 0 5 0
		CHANNELS 3 Xrotation Yrotation Zrotation
	}
}
MOTION
Frames: 1
Frame Time: 0.0333333
10 0 0 0 0 0 0 0 0
`

func TestResolveTwoJoints(t *testing.T) {
	m := mustParse(t, twoJoints)
	p, err := ResolveFrame(m, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := p.Position("Child")
	if !ok || !near(got, geom.Vector3{X: 10, Y: 5, Z: 0}) {
		t.Error("child position", got)
	}
	if root := p.Positions()["Root"]; !near(root, geom.Vector3{X: 10}) {
		t.Error("root position", root)
	}
}

const chain = `HIERARCHY
ROOT A
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT B
	{
		OFFSET 0 5 0
		CHANNELS 3 Zrotation Xrotation Yrotation
		JOINT C
		{
			OFFSET 0 2 0
			CHANNELS 3 Zrotation Xrotation Yrotation
			End Site
			{
				OFFSET 0 1 0
			}
		}
	}
}
MOTION
Frames: 1
Frame Time: 0.1
1 2 3 90 0 0 0 90 0 0 0 0
`

func TestResolveChain(t *testing.T) {
	m := mustParse(t, chain)
	p, err := ResolveFrame(m, 0)
	if err != nil {
		t.Fatal(err)
	}

	// A = T(1,2,3)*Rz(90), B = T(0,5,0)*Rx(90), C = T(0,2,0)
	for name, want := range map[string]geom.Vector3{
		"A": {X: 1, Y: 2, Z: 3},
		"B": {X: -4, Y: 2, Z: 3},
		"C": {X: -4, Y: 2, Z: 5},
	} {
		got, _ := p.Position(name)
		if !near(got, want) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
	end, ok := p.EndSite(m.Skeleton.Joint("C"))
	if !ok || !near(end, geom.Vector3{X: -4, Y: 2, Z: 6}) {
		t.Error("end site", end)
	}

	bones := p.Bones()
	if len(bones) != 3 {
		t.Fatal("bones", len(bones))
	}
	if !bones[2].EndSite || !near(bones[2].To, end) {
		t.Error("end site bone", bones[2])
	}
	// rotations keep bone lengths equal to the offsets
	for i, want := range []float64{5, 2, 1} {
		if l := bones[i].Length(); math.Abs(l-want) > eps {
			t.Error("bone length", i, l, want)
		}
	}
	if len(p.Points()) != 4 {
		t.Error("points", len(p.Points()))
	}
}

func TestRotationOrderSensitivity(t *testing.T) {
	zxy := mustParse(t, `HIERARCHY
ROOT R
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT J
	{
		OFFSET 0 5 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
}
MOTION
Frames: 1
Frame Time: 0.1
0 0 0 30 45 60 0 0 0
`)
	// Same per-axis angles, declared X Y Z.
	xyz := mustParse(t, strings.NewReplacer(
		"CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation", "CHANNELS 6 Xposition Yposition Zposition Xrotation Yrotation Zrotation",
		"0 0 0 30 45 60 0 0 0", "0 0 0 45 60 30 0 0 0",
	).Replace(`HIERARCHY
ROOT R
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT J
	{
		OFFSET 0 5 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
}
MOTION
Frames: 1
Frame Time: 0.1
0 0 0 30 45 60 0 0 0
`))

	p1, err := ResolveFrame(zxy, 0)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := ResolveFrame(xyz, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := p1.Position("J")
	b, _ := p2.Position("J")
	if near(a, b) {
		t.Error("declared rotation order must change the result", a, b)
	}

	// Rz(30)*Rx(45)*Ry(60) applied to (0,5,0)
	want := geom.ComposeRotation([]geom.AxisAngle{{Axis: geom.AxisZ, Degrees: 30}, {Axis: geom.AxisX, Degrees: 45}, {Axis: geom.AxisY, Degrees: 60}}).ApplyTo(geom.NewVector3(0, 5, 0))
	if !near(a, *want) {
		t.Error("ZXY composition", a, want)
	}
}

func TestResolveErrors(t *testing.T) {
	m := mustParse(t, chain)

	_, err := ResolveFrame(m, m.FrameCount())
	var oor *bvh.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Errorf("expected *bvh.OutOfRangeError, got %v", err)
	}

	_, err = Resolve(m.Skeleton, m.Frames[0][:5])
	var mismatch *ChannelCountMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ChannelCountMismatch, got %v", err)
	}
	if mismatch.Want != 12 || mismatch.Got != 5 {
		t.Error("mismatch", mismatch)
	}
}

func TestResolveCorruptOffsets(t *testing.T) {
	root := &bvh.Joint{Name: "root", Channels: []bvh.ChannelKind{bvh.RotationX, bvh.RotationY, bvh.RotationZ}}
	root.AddChild(&bvh.Joint{Name: "child", Channels: []bvh.ChannelKind{bvh.RotationX, bvh.RotationY, bvh.RotationZ}})
	skel, err := bvh.NewSkeleton(root)
	if err != nil {
		t.Fatal(err)
	}
	skel.Joint("child").ChannelOffset = 4

	_, err = Resolve(skel, make([]float64, 6))
	var mismatch *ChannelCountMismatch
	if !errors.As(err, &mismatch) || mismatch.Joint != "child" {
		t.Errorf("expected mismatch on child, got %v", err)
	}
}

func TestResolveDataFile(t *testing.T) {
	m, err := bvh.Load("../testdata/chain.bvh")
	if err != nil {
		t.Fatal(err)
	}
	p, err := ResolveFrame(m, 1)
	if err != nil {
		t.Fatal(err)
	}
	head, _ := p.Position("Head")
	if !near(head, geom.Vector3{X: 1, Y: 15}) {
		t.Error("head", head)
	}
	end, _ := p.EndSite(m.Skeleton.Joint("Head"))
	if !near(end, geom.Vector3{X: -2, Y: 15}) {
		t.Error("head end", end)
	}

	p, err = ResolveFrame(m, 2)
	if err != nil {
		t.Fatal(err)
	}
	spine, _ := p.Position("Spine")
	if !near(spine, geom.Vector3{X: -8}) {
		t.Error("spine", spine)
	}
}
