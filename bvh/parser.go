package bvh

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/binzume/bvhkit/geom"
)

const (
	errNoHierarchy    = "no HIERARCHY section"
	errNoMotion       = "no MOTION section"
	errChannels       = "malformed CHANNELS line"
	errUnbalanced     = "unbalanced hierarchy"
	errMissingFrames  = "missing Frames line"
	errMissingFrameTm = "missing Frame Time line"
)

type block struct {
	joint   *Joint
	endSite bool
}

type parser struct {
	lines []string
	pos   int // index of the next line

	root    *Joint
	stack   []block
	pending *block
}

func (p *parser) errorf(f string, a ...interface{}) error {
	return &ParseError{Line: p.pos, Msg: fmt.Sprintf(f, a...)}
}

// next returns the fields of the next non-empty line.
func (p *parser) next() ([]string, bool) {
	for p.pos < len(p.lines) {
		fields := strings.Fields(p.lines[p.pos])
		p.pos++
		if len(fields) > 0 {
			return fields, true
		}
	}
	return nil, false
}

func (p *parser) top() *block {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *parser) open() error {
	if p.pending == nil {
		return p.errorf("unexpected '{'")
	}
	p.stack = append(p.stack, *p.pending)
	p.pending = nil
	return nil
}

func (p *parser) close() error {
	if len(p.stack) == 0 || p.pending != nil {
		return p.errorf(errUnbalanced)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

// startBlock handles ROOT/JOINT/End headers, which may carry a trailing '{'.
func (p *parser) startBlock(b block, fields []string) error {
	if p.pending != nil {
		return p.errorf("expected '{'")
	}
	p.pending = &b
	if fields[len(fields)-1] == "{" {
		return p.open()
	}
	return nil
}

func jointName(fields []string) string {
	if fields[len(fields)-1] == "{" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields[1:], " ")
}

func parseVector(fields []string) (geom.Vector3, error) {
	var v [3]float64
	if len(fields) != 3 {
		return geom.Vector3{}, fmt.Errorf("want 3 values, got %d", len(fields))
	}
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return geom.Vector3{}, err
		}
		v[i] = f
	}
	return geom.Vector3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func (p *parser) parseHierarchy() error {
	for {
		fields, ok := p.next()
		if !ok {
			break
		}
		switch fields[0] {
		case "ROOT":
			if p.root != nil || len(p.stack) > 0 {
				return p.errorf("unexpected ROOT")
			}
			if len(jointName(fields)) == 0 {
				return p.errorf("ROOT without name")
			}
			p.root = &Joint{Name: jointName(fields)}
			if err := p.startBlock(block{joint: p.root}, fields); err != nil {
				return err
			}
		case "JOINT":
			parent := p.top()
			if parent == nil {
				return p.errorf(errUnbalanced)
			}
			if parent.endSite {
				return p.errorf("JOINT inside End Site")
			}
			if len(jointName(fields)) == 0 {
				return p.errorf("JOINT without name")
			}
			j := &Joint{Name: jointName(fields)}
			parent.joint.AddChild(j)
			if err := p.startBlock(block{joint: j}, fields); err != nil {
				return err
			}
		case "End":
			parent := p.top()
			if parent == nil {
				return p.errorf(errUnbalanced)
			}
			if parent.endSite {
				return p.errorf("End Site inside End Site")
			}
			if err := p.startBlock(block{joint: parent.joint, endSite: true}, fields); err != nil {
				return err
			}
		case "{":
			if err := p.open(); err != nil {
				return err
			}
			if len(fields) > 1 {
				return p.errorf("unexpected %q after '{'", fields[1])
			}
		case "}":
			if err := p.close(); err != nil {
				return err
			}
		case "OFFSET":
			b := p.top()
			if b == nil || p.pending != nil {
				return p.errorf("OFFSET outside of a joint")
			}
			v, err := parseVector(fields[1:])
			if err != nil {
				return p.errorf("malformed OFFSET line: %v", err)
			}
			if b.endSite {
				b.joint.EndSite = &v
			} else {
				b.joint.Offset = v
			}
		case "CHANNELS":
			b := p.top()
			if b == nil || b.endSite || p.pending != nil {
				return p.errorf("CHANNELS outside of a joint")
			}
			if len(fields) < 2 {
				return p.errorf(errChannels)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 || n != len(fields)-2 {
				return p.errorf(errChannels)
			}
			channels := make([]ChannelKind, n)
			for i, s := range fields[2:] {
				c, ok := ParseChannelKind(s)
				if !ok {
					return p.errorf("unknown channel %q", s)
				}
				channels[i] = c
			}
			b.joint.Channels = channels
		case "MOTION":
			if len(p.stack) > 0 || p.pending != nil {
				return p.errorf(errUnbalanced)
			}
			if p.root == nil {
				return p.errorf("no ROOT joint")
			}
			return nil
		default:
			return p.errorf("unexpected %q", fields[0])
		}
	}
	if len(p.stack) > 0 || p.pending != nil {
		return &ParseError{Msg: errUnbalanced}
	}
	return &ParseError{Msg: errNoMotion}
}

func (p *parser) parseMotion(channels int) ([][]float64, float64, error) {
	fields, ok := p.next()
	if !ok || len(fields) != 2 || fields[0] != "Frames:" {
		return nil, 0, p.errorf(errMissingFrames)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return nil, 0, p.errorf("invalid frame count %q", fields[1])
	}

	fields, ok = p.next()
	if !ok || len(fields) != 3 || fields[0] != "Frame" || fields[1] != "Time:" {
		return nil, 0, p.errorf(errMissingFrameTm)
	}
	frameTime, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || frameTime < 0 || math.IsNaN(frameTime) || math.IsInf(frameTime, 0) {
		return nil, 0, p.errorf("invalid frame time %q", fields[2])
	}

	// Frames: is untrusted; size by what is actually left.
	frames := make([][]float64, 0, min(n, len(p.lines)-p.pos))
	for len(frames) < n && p.pos < len(p.lines) {
		line := strings.Fields(p.lines[p.pos])
		p.pos++
		values := make([]float64, 0, channels)
		var bad string
		for _, s := range line {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				bad = s
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		if bad != "" {
			return nil, 0, p.errorf("invalid frame value %q", bad)
		}
		if len(values) != channels {
			return nil, 0, p.errorf("frame %d has %d values, want %d", len(frames), len(values), channels)
		}
		frames = append(frames, values)
	}
	if len(frames) < n {
		return nil, 0, &ParseError{Msg: fmt.Sprintf("expected %d frames, found %d", n, len(frames))}
	}
	return frames, frameTime, nil
}

// Parse reads a BVH document. The returned motion's frames all have
// Skeleton.ChannelCount() values; lines beyond the declared frame count are
// ignored.
func Parse(text string) (*Motion, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	p := &parser{lines: strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")}

	found := false
	for fields, ok := p.next(); ok; fields, ok = p.next() {
		if fields[0] == "HIERARCHY" {
			found = true
			break
		}
	}
	if !found {
		return nil, &ParseError{Msg: errNoHierarchy}
	}

	if err := p.parseHierarchy(); err != nil {
		return nil, err
	}
	skel, err := NewSkeleton(p.root)
	if err != nil {
		return nil, &ParseError{Msg: strings.TrimPrefix(err.Error(), "bvh: ")}
	}

	frames, frameTime, err := p.parseMotion(skel.ChannelCount())
	if err != nil {
		return nil, err
	}
	return &Motion{Skeleton: skel, FrameTime: frameTime, Frames: frames}, nil
}
