// Package player plays a motion as a stick figure in the terminal.
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/pose"
	"github.com/binzume/bvhkit/render"
	"github.com/gdamore/tcell/v2"
)

const (
	minSpeed = 0.125
	maxSpeed = 8
)

// Canvas is the part of tcell.Screen the player draws on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
}

type Options struct {
	Name       string
	FPS        int // Default: 30
	Speed      float64
	Loop       bool
	AutoRotate bool
	Pitch      float64 // camera pitch in degrees
}

type Player struct {
	screen tcell.Screen
	motion *bvh.Motion
	opt    Options
	state  pose.PlaybackState

	boneStyle   tcell.Style
	jointStyle  tcell.Style
	statusStyle tcell.Style
}

func New(screen tcell.Screen, m *bvh.Motion, opt Options) *Player {
	if opt.FPS <= 0 {
		opt.FPS = 30
	}
	st := pose.NewPlaybackState()
	if opt.Speed != 0 {
		st.Speed = opt.Speed
	}
	st.Loop = opt.Loop
	st.AutoRotate = opt.AutoRotate
	return &Player{
		screen:      screen,
		motion:      m,
		opt:         opt,
		state:       st,
		boneStyle:   tcell.StyleDefault.Foreground(tcell.ColorWhite),
		jointStyle:  tcell.StyleDefault.Foreground(tcell.ColorOrange),
		statusStyle: tcell.StyleDefault.Foreground(tcell.ColorGreen),
	}
}

func (p *Player) State() pose.PlaybackState {
	return p.state
}

// Apply updates the playback state. It returns false when the player should
// stop.
func (p *Player) Apply(a Action) bool {
	s := p.state
	switch a {
	case ActionQuit:
		return false
	case ActionTogglePause:
		s.Paused = !s.Paused
	case ActionFaster:
		s.Speed = clampSpeed(s.Speed * 2)
	case ActionSlower:
		s.Speed = clampSpeed(s.Speed / 2)
	case ActionToggleLoop:
		s.Loop = !s.Loop
	case ActionToggleRotate:
		s.AutoRotate = !s.AutoRotate
	case ActionStepForward:
		s.Paused = true
		s = s.Step(1, p.motion)
	case ActionStepBack:
		s.Paused = true
		s = s.Step(-1, p.motion)
	}
	p.state = s
	return true
}

func clampSpeed(v float64) float64 {
	sign := 1.0
	if v < 0 {
		sign, v = -1, -v
	}
	if v < minSpeed {
		v = minSpeed
	} else if v > maxSpeed {
		v = maxSpeed
	}
	return sign * v
}

// HandleEvent reacts to key and resize events. It returns false on quit.
func (p *Player) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return p.Apply(actionFor(ev.Key(), ev.Rune()))
	case *tcell.EventResize:
		p.screen.Sync()
	}
	return true
}

// Tick advances playback by dt.
func (p *Player) Tick(dt time.Duration) {
	p.state = p.state.Advance(dt, p.motion)
}

func clearCanvas(c Canvas) {
	w, h := c.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

func drawText(c Canvas, x, y int, s string, style tcell.Style) {
	w, _ := c.Size()
	for _, r := range s {
		if x >= w {
			return
		}
		c.SetContent(x, y, r, nil, style)
		x++
	}
}

func (p *Player) status() string {
	s := p.state
	line := fmt.Sprintf(" %s frame %d/%d  x%g", p.opt.Name, s.FrameIndex(p.motion)+1, p.motion.FrameCount(), s.Speed)
	if s.Loop {
		line += "  [loop]"
	}
	if s.AutoRotate {
		line += "  [rotate]"
	}
	if s.Paused {
		line += "  [paused]"
	}
	return line
}

// Draw renders the current frame with a status line on the last row.
func (p *Player) Draw(c Canvas) error {
	clearCanvas(c)
	w, h := c.Size()
	if w <= 0 || h <= 1 {
		return nil
	}
	drawText(c, 0, h-1, p.status(), p.statusStyle)
	if p.motion.FrameCount() == 0 {
		drawText(c, 0, 0, "no frames", p.statusStyle)
		return nil
	}

	ps, err := pose.ResolveAt(p.motion, p.state)
	if err != nil {
		return err
	}
	cam := render.Camera{Yaw: p.state.Yaw, Pitch: p.opt.Pitch}

	// Cells are about twice as tall as wide.
	widen := func(v []geom.Vector2) []geom.Vector2 {
		for i := range v {
			v[i].X *= 2
		}
		return v
	}
	pts := widen(render.Project(ps.Points(), cam))
	vp := render.FitViewport(pts, w, h-1, 1)

	inside := func(x, y int) bool { return x >= 0 && y >= 0 && x < w && y < h-1 }
	for _, b := range ps.Bones() {
		seg := widen(render.Project([]geom.Vector3{b.From, b.To}, cam))
		x0, y0 := vp.ToScreen(seg[0])
		x1, y1 := vp.ToScreen(seg[1])
		render.Line(x0, y0, x1, y1, func(x, y int) {
			if inside(x, y) {
				c.SetContent(x, y, '*', nil, p.boneStyle)
			}
		})
	}
	for _, v := range pts {
		if x, y := vp.ToScreen(v); inside(x, y) {
			c.SetContent(x, y, 'o', nil, p.jointStyle)
		}
	}
	return nil
}

// pumpEvents forwards polled events until poll returns nil or quit closes.
func pumpEvents(poll func() tcell.Event, events chan<- tcell.Event, quit <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

// Run drives the player until ctx is done or the user quits.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(p.opt.FPS))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go pumpEvents(p.screen.PollEvent, eventChan, quit)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-eventChan:
			if !p.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			p.Tick(now.Sub(last))
			last = now
			if err := p.Draw(p.screen); err != nil {
				return err
			}
			p.screen.Show()
		}
	}
}
