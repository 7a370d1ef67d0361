package player

import "github.com/gdamore/tcell/v2"

type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionTogglePause
	ActionFaster
	ActionSlower
	ActionToggleLoop
	ActionToggleRotate
	ActionStepBack
	ActionStepForward
)

func actionFor(key tcell.Key, r rune) Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyLeft:
		return ActionStepBack
	case tcell.KeyRight:
		return ActionStepForward
	case tcell.KeyRune:
		switch r {
		case 'q':
			return ActionQuit
		case ' ':
			return ActionTogglePause
		case '+', '=':
			return ActionFaster
		case '-':
			return ActionSlower
		case 'l':
			return ActionToggleLoop
		case 'r':
			return ActionToggleRotate
		}
	}
	return ActionNone
}
