package camera

// MouseNavigator turns a held-button drag into camera rotation. It is
// active between Start and Reset.
type MouseNavigator struct {
	camera  *OrbitCamera
	active  bool
	last    [2]int
	current [2]int
}

// NewMouseNavigator creates a navigator driving c.
func NewMouseNavigator(c *OrbitCamera) *MouseNavigator {
	return &MouseNavigator{camera: c}
}

// Start begins a gesture at the given cursor position.
func (n *MouseNavigator) Start(x, y int) {
	n.active = true
	n.last = [2]int{x, y}
	n.current = n.last
}

// Active reports whether a gesture is in progress.
func (n *MouseNavigator) Active() bool {
	return n.active
}

// SetVector records the latest cursor position of the gesture.
func (n *MouseNavigator) SetVector(x, y int) {
	if n.active {
		n.current = [2]int{x, y}
	}
}

// UpdateCamera applies the movement accumulated since the last call.
func (n *MouseNavigator) UpdateCamera() {
	if !n.active {
		return
	}
	dx := float32(n.current[0] - n.last[0])
	dy := float32(n.current[1] - n.last[1])
	if dx != 0 || dy != 0 {
		n.camera.HandleDrag(dx, dy)
	}
	n.last = n.current
}

// Reset ends the gesture.
func (n *MouseNavigator) Reset() {
	n.active = false
}
