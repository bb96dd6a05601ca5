package input

import "github.com/veandco/go-sdl2/sdl"

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Metadata describes an input event together with the keyboard and
// mouse state at the time it fired.
type Metadata struct {
	Type EventType
	Key  string // lowercase key name, key-down only

	Alt, Ctrl, Shift, System bool

	MouseX, MouseY      int
	Left, Middle, Right bool

	Wheel         int
	Width, Height int // window resize only

	cancelled *bool
}

// CancelAll stops the event from reaching callbacks registered after the
// current one.
func (m Metadata) CancelAll() {
	if m.cancelled != nil {
		*m.cancelled = true
	}
}

// WithCancel returns a copy of m whose CancelAll sets *flag. Other
// dispatch loops use it to honor cancellation the same way Dispatch does.
func WithCancel(m Metadata, flag *bool) Metadata {
	m.cancelled = flag
	return m
}

func (m *Metadata) setButton(button uint8) {
	switch uint32(button) {
	case uint32(sdl.BUTTON_LEFT):
		m.Left = true
	case uint32(sdl.BUTTON_MIDDLE):
		m.Middle = true
	case uint32(sdl.BUTTON_RIGHT):
		m.Right = true
	}
}

// Callback receives dispatched events.
type Callback func(Metadata)

// Dispatcher holds per-event-type callback slots. Unregistering clears a
// slot without shrinking the list, so a slot index stays valid for the
// dispatcher's lifetime.
type Dispatcher struct {
	events map[EventType][]Callback
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{events: make(map[EventType][]Callback)}
}

// Register adds cb for typ, reusing the first empty slot, and returns the
// slot index. A nil cb is not stored and yields -1.
func (d *Dispatcher) Register(typ EventType, cb Callback) int {
	if cb == nil {
		return -1
	}
	slots := d.events[typ]
	for i, existing := range slots {
		if existing == nil {
			slots[i] = cb
			return i
		}
	}
	d.events[typ] = append(slots, cb)
	return len(slots)
}

// Unregister clears a slot. Unknown slots are ignored.
func (d *Dispatcher) Unregister(typ EventType, slot int) {
	slots := d.events[typ]
	if slot >= 0 && slot < len(slots) {
		slots[slot] = nil
	}
}

// Dispatch runs every registered callback for m.Type in slot order until
// one of them cancels.
func (d *Dispatcher) Dispatch(m Metadata) {
	cancelled := false
	m = WithCancel(m, &cancelled)

	for _, cb := range d.events[m.Type] {
		if cb == nil {
			continue
		}
		cb(m)
		if cancelled {
			return
		}
	}
}

// Reset drops every registration.
func (d *Dispatcher) Reset() {
	d.events = make(map[EventType][]Callback)
}
