package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

// scenarioLayout places A at (0,0), B at (-110,120), C at (110,120) and D
// at (-110,240).
func scenarioLayout(t *testing.T) layout.Layout {
	t.Helper()
	people := familytest.New("A", "B", "C", "D").
		Parent("A", "B").Parent("A", "C").Parent("B", "D").People()
	root, ok := hierarchy.FromGraph(kin.Build(people))
	if !ok {
		t.Fatal("no hierarchy")
	}
	return layout.Compute(root)
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c := New(scenarioLayout(t), opts...)
	c.Initialize(800, 600)
	return c
}

func TestTransformApplyInvert(t *testing.T) {
	tr := Transform{X: 400, Y: 100, K: 0.8}
	p := Point{X: 110, Y: 120}

	s := tr.Apply(p)
	if !near(s.X, 488) || !near(s.Y, 196) {
		t.Errorf("Apply = %+v", s)
	}
	if back := tr.Invert(s); !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("Invert(Apply(p)) = %+v, want %+v", back, p)
	}
	if got := tr.String(); got != "translate(400,100) scale(0.8)" {
		t.Errorf("String() = %q", got)
	}
}

func TestTransformScaleAboutKeepsAnchor(t *testing.T) {
	tr := Transform{X: 13, Y: -7, K: 0.6}
	p := Point{X: 250, Y: 140}
	before := tr.Invert(p)
	after := tr.ScaleAbout(1.7, p).Invert(p)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Errorf("anchor moved from %+v to %+v", before, after)
	}
}

func TestInitialize(t *testing.T) {
	c := New(scenarioLayout(t))
	if c.Transform() != Identity {
		t.Errorf("uninitialised transform = %+v", c.Transform())
	}
	got := c.Initialize(800, 600)
	want := Transform{X: 400, Y: 100, K: 0.8}
	if got != want || c.Transform() != want {
		t.Errorf("Initialize = %+v, want %+v", got, want)
	}
	if w, h := c.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %v x %v", w, h)
	}
}

func TestScaleClamping(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  float64
	}{
		{"ScaleToAboveMax", Event{Kind: ScaleTo, Scale: 5.0}, 2.0},
		{"ScaleToBelowMin", Event{Kind: ScaleTo, Scale: 0.01}, 0.1},
		{"ScaleToInRange", Event{Kind: ScaleTo, Scale: 1.25}, 1.25},
		{"PinchOut", Event{Kind: Pinch, Factor: 100, Point: Point{X: 10, Y: 10}}, 2.0},
		{"PinchIn", Event{Kind: Pinch, Factor: 0.5}, 0.4},
		{"WheelIn", Event{Kind: Wheel, DY: -500}, 1.6},
		{"WheelOut", Event{Kind: Wheel, DY: 500}, 0.4},
		{"WheelFarOut", Event{Kind: Wheel, DY: 1e5}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			got, applied := c.OnPanZoomInput(tt.event)
			if !applied {
				t.Fatal("event not applied")
			}
			if !near(got.K, tt.want) {
				t.Errorf("K = %v, want %v", got.K, tt.want)
			}
		})
	}
}

func TestWheelZoomsAboutPointer(t *testing.T) {
	c := newController(t)
	pointer := Point{X: 530, Y: 260}
	before := c.Transform().Invert(pointer)

	c.OnPanZoomInput(Event{Kind: Wheel, DY: -120, Point: pointer})

	after := c.Transform().Invert(pointer)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Errorf("layout point under pointer moved: %+v -> %+v", before, after)
	}
}

func TestDragIsUnbounded(t *testing.T) {
	c := newController(t)
	got, _ := c.OnPanZoomInput(Event{Kind: Drag, DX: -1e6, DY: 3e5})
	if got.X != 400-1e6 || got.Y != 100+3e5 || got.K != 0.8 {
		t.Errorf("after drag = %+v", got)
	}
}

func TestSequenceIdempotence(t *testing.T) {
	c := newController(t)
	drag := Event{Seq: 1, Kind: Drag, DX: 10}

	if _, applied := c.OnPanZoomInput(drag); !applied {
		t.Fatal("first delivery not applied")
	}
	if _, applied := c.OnPanZoomInput(drag); applied {
		t.Error("redelivered event applied twice")
	}
	if _, applied := c.OnPanZoomInput(Event{Seq: 0, Kind: Drag, DX: 5}); !applied {
		t.Error("unsequenced event should always apply")
	}
	if _, applied := c.OnPanZoomInput(Event{Seq: 2, Kind: Drag, DX: 1}); !applied {
		t.Error("newer event not applied")
	}
	if got := c.Transform().X; got != 416 {
		t.Errorf("X = %v, want 416", got)
	}
}

func TestInvalidEventsIgnored(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{"NaNDrag", Event{Kind: Drag, DX: math.NaN()}},
		{"InfDrag", Event{Kind: Drag, DY: math.Inf(1)}},
		{"ZeroPinch", Event{Kind: Pinch}},
		{"NegativeScale", Event{Kind: ScaleTo, Scale: -1}},
		{"UnknownKind", Event{Kind: EventKind(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			before := c.Transform()
			if _, applied := c.OnPanZoomInput(tt.event); applied {
				t.Error("invalid event applied")
			}
			if c.Transform() != before {
				t.Errorf("transform changed to %+v", c.Transform())
			}
		})
	}
}

func TestActivationAfterPan(t *testing.T) {
	c := newController(t)
	c.OnPanZoomInput(Event{Kind: Drag, DX: 50, DY: -20})

	var activated []string
	c.OnActivate(func(id string) { activated = append(activated, id) })

	tests := []struct {
		name   string
		point  Point
		wantID string
		wantOK bool
	}{
		// C is drawn at (110*0.8+450, 120*0.8+80) = (538, 176).
		{"CardCentre", Point{X: 538, Y: 176}, "C", true},
		{"InsideScaledCard", Point{X: 538 + 63, Y: 176 + 23}, "C", true},
		{"OutsideScaledCard", Point{X: 538 + 65, Y: 176}, "", false},
		{"Root", Point{X: 450, Y: 80}, "A", true},
		{"EmptySpace", Point{X: 5, Y: 5}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := c.OnNodeActivated(tt.point)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("OnNodeActivated(%+v) = %q, %v; want %q, %v", tt.point, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}

	if len(activated) != 3 || activated[0] != "C" || activated[2] != "A" {
		t.Errorf("handler calls = %v, want [C C A]", activated)
	}
}

func TestActivationAfterZoom(t *testing.T) {
	c := newController(t)
	c.OnPanZoomInput(Event{Kind: Wheel, DY: -500, Point: Point{X: 123, Y: 456}})
	c.OnPanZoomInput(Event{Kind: Drag, DX: -30, DY: 15})

	for _, id := range []string{"A", "B", "C", "D"} {
		p, ok := c.ScreenPosition(id)
		if !ok {
			t.Fatalf("ScreenPosition(%s) missing", id)
		}
		if got, ok := c.OnNodeActivated(p); !ok || got != id {
			t.Errorf("OnNodeActivated at %s's centre = %q, %v", id, got, ok)
		}
	}
}

func TestDoubleTap(t *testing.T) {
	t.Run("OnNodeActivatesWithoutZoom", func(t *testing.T) {
		c := newController(t, WithDoubleTapZoom(true))
		var got string
		c.OnActivate(func(id string) { got = id })
		before := c.Transform()

		_, applied := c.OnPanZoomInput(Event{Kind: DoubleTap, Point: Point{X: 400, Y: 100}})
		if applied || c.Transform() != before {
			t.Errorf("double-tap on a node zoomed: %+v", c.Transform())
		}
		if got != "A" {
			t.Errorf("activated %q, want A", got)
		}
	})

	t.Run("EmptySpaceDisabledByDefault", func(t *testing.T) {
		c := newController(t)
		before := c.Transform()
		if _, applied := c.OnPanZoomInput(Event{Kind: DoubleTap, Point: Point{X: 5, Y: 5}}); applied {
			t.Error("double-tap zoom should be off by default")
		}
		if c.Transform() != before {
			t.Errorf("transform changed to %+v", c.Transform())
		}
	})

	t.Run("EmptySpaceZoomsWhenEnabled", func(t *testing.T) {
		c := newController(t, WithDoubleTapZoom(true))
		got, applied := c.OnPanZoomInput(Event{Kind: DoubleTap, Point: Point{X: 5, Y: 5}})
		if !applied || !near(got.K, 1.6) {
			t.Errorf("after double-tap = %+v, %v", got, applied)
		}
	})
}

func TestControllerNeverMutatesLayout(t *testing.T) {
	l := scenarioLayout(t)
	before := append([]layout.Node(nil), l.Nodes...)

	c := New(l)
	c.Initialize(640, 480)
	c.OnPanZoomInput(Event{Kind: Drag, DX: 20})
	c.OnPanZoomInput(Event{Kind: ScaleTo, Scale: 1.5})
	c.OnNodeActivated(Point{X: 320, Y: 100})

	for i := range before {
		if l.Nodes[i] != before[i] {
			t.Fatalf("node %d changed: %+v", i, l.Nodes[i])
		}
	}
}

func TestSetTransform(t *testing.T) {
	c := newController(t)
	if c.SetTransform(Transform{X: 1, Y: 2}) {
		t.Error("zero scale accepted")
	}
	if !c.SetTransform(Transform{X: 1, Y: 2, K: 9}) {
		t.Fatal("valid transform rejected")
	}
	if got := c.Transform(); got != (Transform{X: 1, Y: 2, K: 2}) {
		t.Errorf("Transform() = %+v, want clamped scale", got)
	}
	if got := c.Reset(); got != (Transform{X: 400, Y: 100, K: 0.8}) {
		t.Errorf("Reset() = %+v", got)
	}
}

func TestEmptyLayout(t *testing.T) {
	c := New(layout.Compute(nil))
	c.Initialize(100, 100)
	if id, ok := c.OnNodeActivated(Point{X: 50, Y: 100}); ok {
		t.Errorf("empty layout hit %q", id)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"Defaults", DefaultOptions(), false},
		{"Inverted", Options{DefaultScale: 1, MinScale: 2, MaxScale: 1}, true},
		{"DefaultOutside", Options{DefaultScale: 3, MinScale: 0.1, MaxScale: 2}, true},
		{"ZeroFilled", Options{}.WithDefaults(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if got := (Options{}).Resolve(); got != DefaultOptions() {
		t.Errorf("zero Resolve() = %+v, want DefaultOptions", got)
	}

	custom := Options{DefaultScale: 1, MinScale: 0.5, MaxScale: 4}
	got := custom.Resolve()
	if got.TopOffset != 0 {
		t.Errorf("TopOffset = %v, want explicit 0 kept", got.TopOffset)
	}
	if got.WheelFactor != DefaultWheelFactor {
		t.Errorf("WheelFactor = %v, want default", got.WheelFactor)
	}
}

func TestWithScaleExtentSwapsInvertedRange(t *testing.T) {
	c := New(layout.Layout{}, WithScaleExtent(3, 0.5))
	if o := c.Options(); o.MinScale != 0.5 || o.MaxScale != 3 {
		t.Errorf("scale extent = [%v, %v]", o.MinScale, o.MaxScale)
	}
}

func TestEventKindString(t *testing.T) {
	if Wheel.String() != "wheel" || EventKind(-1).String() != "unknown" {
		t.Errorf("unexpected names %q %q", Wheel.String(), EventKind(-1).String())
	}
}
