package pose

import (
	"math"
	"time"

	"github.com/binzume/bvhkit/bvh"
)

// AutoRotateSpeed is the camera yaw rate in degrees per second.
const AutoRotateSpeed = 30.0

// PlaybackState is owned by the embedding application and passed by value
// on every tick.
type PlaybackState struct {
	Time       float64 // seconds
	Speed      float64
	Paused     bool
	Loop       bool
	AutoRotate bool
	Yaw        float64 // degrees
}

func NewPlaybackState() PlaybackState {
	return PlaybackState{Speed: 1, Loop: true}
}

// Advance returns the state dt later.
func (s PlaybackState) Advance(dt time.Duration, m *bvh.Motion) PlaybackState {
	sec := dt.Seconds()
	if s.AutoRotate {
		s.Yaw = math.Mod(s.Yaw+AutoRotateSpeed*sec, 360)
	}
	if s.Paused {
		return s
	}
	s.Time += sec * s.Speed
	return s.normalize(m)
}

// Step moves n frames forward (or back when n < 0).
func (s PlaybackState) Step(n int, m *bvh.Motion) PlaybackState {
	s.Time = (float64(s.FrameIndex(m)+n) + 0.5) * m.FrameTime
	return s.normalize(m)
}

func (s PlaybackState) normalize(m *bvh.Motion) PlaybackState {
	dur := m.Duration()
	if dur <= 0 {
		s.Time = 0
		return s
	}
	if s.Loop {
		s.Time = math.Mod(s.Time, dur)
		if s.Time < 0 {
			s.Time += dur
		}
		return s
	}
	last := float64(m.FrameCount()-1) * m.FrameTime
	s.Time = math.Max(0, math.Min(s.Time, last))
	return s
}

// FrameIndex returns the frame shown at s.Time, clamped to the motion.
func (s PlaybackState) FrameIndex(m *bvh.Motion) int {
	n := m.FrameCount()
	if n == 0 || m.FrameTime <= 0 {
		return 0
	}
	i := int(math.Floor(s.Time/m.FrameTime + 1e-9))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// ResolveAt resolves the frame selected by s.
func ResolveAt(m *bvh.Motion, s PlaybackState) (*Pose, error) {
	return ResolveFrame(m, s.FrameIndex(m))
}
