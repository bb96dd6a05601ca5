// Package input handles SDL2 input events and dispatches them to
// registered callbacks.
package input

import (
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

// Input polls SDL and feeds a Dispatcher.
type Input struct {
	dispatcher *Dispatcher

	// When set, key or mouse events are dropped until the next Update.
	eatKeyEvents   bool
	eatMouseEvents bool
}

// New creates a new input handler dispatching to d.
func New(d *Dispatcher) *Input {
	return &Input{dispatcher: d}
}

// Dispatcher returns the dispatcher fed by this input.
func (i *Input) Dispatcher() *Dispatcher {
	return i.dispatcher
}

// EatKeyEvents drops keyboard events for the rest of this frame, for
// example after a text field consumed them.
func (i *Input) EatKeyEvents() {
	i.eatKeyEvents = true
}

// EatMouseEvents drops mouse events for the rest of this frame.
func (i *Input) EatMouseEvents() {
	i.eatMouseEvents = true
}

// Update polls SDL events and dispatches them.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	defer func() {
		i.eatKeyEvents = false
		i.eatMouseEvents = false
	}()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.dispatcher.Dispatch(i.snapshot(EventQuit))
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				m := i.snapshot(EventWindowResize)
				m.Width, m.Height = int(e.Data1), int(e.Data2)
				i.dispatcher.Dispatch(m)
			}

		case *sdl.KeyboardEvent:
			if i.eatKeyEvents {
				continue
			}
			typ := EventKeyUp
			if e.Type == sdl.KEYDOWN {
				typ = EventKeyDown
			}
			m := i.snapshot(typ)
			if typ == EventKeyDown {
				m.Key = strings.ToLower(sdl.GetScancodeName(e.Keysym.Scancode))
			}
			i.dispatcher.Dispatch(m)

		case *sdl.MouseMotionEvent:
			if i.eatMouseEvents {
				continue
			}
			m := i.snapshot(EventMouseMove)
			m.MouseX, m.MouseY = int(e.X), int(e.Y)
			i.dispatcher.Dispatch(m)

		case *sdl.MouseButtonEvent:
			if i.eatMouseEvents {
				continue
			}
			typ := EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				typ = EventMouseDown
			}
			m := i.snapshot(typ)
			m.MouseX, m.MouseY = int(e.X), int(e.Y)
			// The released button is no longer in the mouse state.
			m.setButton(e.Button)
			i.dispatcher.Dispatch(m)

		case *sdl.MouseWheelEvent:
			if i.eatMouseEvents {
				continue
			}
			m := i.snapshot(EventMouseWheel)
			m.Wheel = int(e.Y)
			i.dispatcher.Dispatch(m)
		}
	}

	return false
}

// snapshot captures the current modifier and mouse state.
func (i *Input) snapshot(typ EventType) Metadata {
	m := Metadata{Type: typ}
	m.Alt, m.Ctrl, m.Shift, m.System = modifiers(sdl.GetModState())

	x, y, state := sdl.GetMouseState()
	m.MouseX, m.MouseY = int(x), int(y)
	m.Left, m.Middle, m.Right = buttons(state)
	return m
}

func modifiers(mod sdl.Keymod) (alt, ctrl, shift, system bool) {
	m := uint32(mod)
	return m&uint32(sdl.KMOD_ALT) != 0,
		m&uint32(sdl.KMOD_CTRL) != 0,
		m&uint32(sdl.KMOD_SHIFT) != 0,
		m&uint32(sdl.KMOD_GUI) != 0
}

func buttons(state uint32) (left, middle, right bool) {
	return state&buttonMask(uint32(sdl.BUTTON_LEFT)) != 0,
		state&buttonMask(uint32(sdl.BUTTON_MIDDLE)) != 0,
		state&buttonMask(uint32(sdl.BUTTON_RIGHT)) != 0
}

func buttonMask(button uint32) uint32 {
	return 1 << (button - 1)
}
