package viewport

// EventKind identifies the gesture an [Event] describes.
type EventKind int

const (
	// Drag pans by (DX, DY) screen pixels.
	Drag EventKind = iota
	// Wheel zooms about Point by 2^(-DY * WheelFactor).
	Wheel
	// Pinch multiplies the scale by Factor about Point.
	Pinch
	// ScaleTo sets the scale to Scale about the viewport centre.
	ScaleTo
	// DoubleTap activates the node under Point, or zooms in on empty space
	// when enabled.
	DoubleTap
)

var kindNames = [...]string{"drag", "wheel", "pinch", "scale-to", "double-tap"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one pan/zoom input. Seq is an optional, increasing sequence
// number; zero disables duplicate suppression for the event.
type Event struct {
	Seq    uint64
	Kind   EventKind
	DX, DY float64
	Factor float64
	Scale  float64
	Point  Point
}
