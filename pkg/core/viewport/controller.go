package viewport

import (
	"math"

	"github.com/matzehuels/kintree/pkg/core/layout"
)

// ActivationFunc receives the identifier of an activated person.
type ActivationFunc func(personID string)

// Controller holds the viewport state for one rendered layout.
type Controller struct {
	layout   layout.Layout
	opts     Options
	t        Transform
	width    float64
	height   float64
	lastSeq  uint64
	activate ActivationFunc
}

// New creates a controller over l. Until [Controller.Initialize] is called
// the transform is the identity.
func New(l layout.Layout, opts ...Option) *Controller {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o = o.WithDefaults()
	if o.MinScale > o.MaxScale {
		o.MinScale, o.MaxScale = o.MaxScale, o.MinScale
	}
	return &Controller{layout: l, opts: o, t: Identity}
}

// Options returns the effective options.
func (c *Controller) Options() Options { return c.opts }

// Layout returns the layout the controller hit-tests against.
func (c *Controller) Layout() layout.Layout { return c.layout }

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Size returns the viewport dimensions given to Initialize.
func (c *Controller) Size() (w, h float64) { return c.width, c.height }

// OnActivate registers fn to be called on every successful activation.
// Passing nil removes the handler.
func (c *Controller) OnActivate(fn ActivationFunc) { c.activate = fn }

// Initialize sizes the viewport and places the root at the horizontal
// centre, TopOffset pixels from the top, at the default scale.
func (c *Controller) Initialize(width, height float64) Transform {
	c.width, c.height = width, height
	c.t = Transform{X: width / 2, Y: c.opts.TopOffset, K: c.clamp(c.opts.DefaultScale)}
	return c.t
}

// Resize updates the viewport dimensions without moving the content.
func (c *Controller) Resize(width, height float64) {
	c.width, c.height = width, height
}

// SetTransform replaces the transform, clamping its scale. Invalid
// transforms are ignored and false is returned.
func (c *Controller) SetTransform(t Transform) bool {
	if !t.Valid() {
		return false
	}
	t.K = c.clamp(t.K)
	c.t = t
	return true
}

// OnPanZoomInput applies e and returns the resulting transform. applied is
// false when the event was a duplicate, carried unusable values, or was a
// double-tap that did not zoom.
func (c *Controller) OnPanZoomInput(e Event) (t Transform, applied bool) {
	if e.Seq != 0 {
		if e.Seq <= c.lastSeq {
			return c.t, false
		}
		c.lastSeq = e.Seq
	}

	next, ok := c.next(e)
	if !ok || !next.Valid() {
		return c.t, false
	}
	c.t = next
	return c.t, true
}

func (c *Controller) next(e Event) (Transform, bool) {
	switch e.Kind {
	case Drag:
		return c.t.Translate(e.DX, e.DY), true
	case Wheel:
		return c.zoomAbout(c.t.K*math.Pow(2, -e.DY*c.opts.WheelFactor), e.Point), true
	case Pinch:
		if e.Factor <= 0 {
			return c.t, false
		}
		return c.zoomAbout(c.t.K*e.Factor, e.Point), true
	case ScaleTo:
		if e.Scale <= 0 {
			return c.t, false
		}
		return c.zoomAbout(e.Scale, Point{X: c.width / 2, Y: c.height / 2}), true
	case DoubleTap:
		if _, ok := c.OnNodeActivated(e.Point); ok {
			return c.t, false
		}
		if !c.opts.DoubleTapZoom {
			return c.t, false
		}
		return c.zoomAbout(c.t.K*c.opts.TapZoomFactor, e.Point), true
	}
	return c.t, false
}

func (c *Controller) zoomAbout(k float64, p Point) Transform {
	return c.t.ScaleAbout(c.clamp(k), p)
}

func (c *Controller) clamp(k float64) float64 {
	return math.Max(c.opts.MinScale, math.Min(c.opts.MaxScale, k))
}

// Reset returns to the initial transform for the current size.
func (c *Controller) Reset() Transform {
	return c.Initialize(c.width, c.height)
}

// OnNodeActivated resolves the person under a screen point. On a hit the
// activation handler, if any, is called with the person identifier.
func (c *Controller) OnNodeActivated(screen Point) (personID string, ok bool) {
	n, ok := c.Hit(screen)
	if !ok {
		return "", false
	}
	if c.activate != nil {
		c.activate(n.ID)
	}
	return n.ID, true
}

// Hit returns the node whose card covers the screen point without firing
// the activation handler.
func (c *Controller) Hit(screen Point) (layout.Node, bool) {
	p := c.t.Invert(screen)
	w, h := c.opts.cardSize(c.layout)
	nodes := c.layout.Nodes
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Contains(p.X, p.Y, w, h) {
			return nodes[i], true
		}
	}
	return layout.Node{}, false
}

// ScreenPosition returns where a person's card centre is drawn.
func (c *Controller) ScreenPosition(personID string) (Point, bool) {
	n, ok := c.layout.Lookup(personID)
	if !ok {
		return Point{}, false
	}
	return c.t.Apply(Point{X: n.X, Y: n.Y}), true
}

// Visible returns the layout-space rectangle currently on screen.
func (c *Controller) Visible() (topLeft, bottomRight Point) {
	return c.t.Invert(Point{}), c.t.Invert(Point{X: c.width, Y: c.height})
}
