package alarm

// InputPin is a digital input line, active high when pressed. machine.Pin
// satisfies it on device.
type InputPin interface {
	Get() bool
}

// Debouncer tracks one button's level at the render loop's polling cadence
// and derives the single-cycle "just pressed" edge. It has a single writer
// (the render loop) and is never shared across tasks.
type Debouncer struct {
	pin         InputPin
	down        bool
	justPressed bool
}

// NewDebouncer returns a debouncer for the given line.
func NewDebouncer(pin InputPin) Debouncer {
	return Debouncer{pin: pin}
}

// Update samples the line once. JustPressed is true for exactly one Update
// per rising edge.
func (d *Debouncer) Update() {
	active := d.pin.Get()
	d.justPressed = active && !d.down
	d.down = active
}

// Down reports whether the button is currently held.
func (d *Debouncer) Down() bool { return d.down }

// JustPressed reports whether the most recent Update saw a rising edge.
func (d *Debouncer) JustPressed() bool { return d.justPressed }
