package viewport

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/core/layout"
)

const (
	DefaultScale       = 0.8
	DefaultMinScale    = 0.1
	DefaultMaxScale    = 2.0
	DefaultTopOffset   = 100.0
	DefaultWheelFactor = 0.002
	DefaultTapZoom     = 2.0
)

// Options configures a [Controller].
type Options struct {
	DefaultScale  float64 `json:"defaultScale" toml:"default_scale"`
	MinScale      float64 `json:"minScale" toml:"min_scale"`
	MaxScale      float64 `json:"maxScale" toml:"max_scale"`
	TopOffset     float64 `json:"topOffset" toml:"top_offset"`
	WheelFactor   float64 `json:"wheelFactor" toml:"wheel_factor"`
	DoubleTapZoom bool    `json:"doubleTapZoom" toml:"double_tap_zoom"`
	TapZoomFactor float64 `json:"tapZoomFactor" toml:"tap_zoom_factor"`

	// Card size used for hit-testing. Zero means the layout's own size.
	NodeWidth  float64 `json:"nodeWidth,omitempty" toml:"node_width"`
	NodeHeight float64 `json:"nodeHeight,omitempty" toml:"node_height"`
}

// DefaultOptions mirrors the zoom behaviour of the web client.
func DefaultOptions() Options {
	return Options{
		DefaultScale:  DefaultScale,
		MinScale:      DefaultMinScale,
		MaxScale:      DefaultMaxScale,
		TopOffset:     DefaultTopOffset,
		WheelFactor:   DefaultWheelFactor,
		TapZoomFactor: DefaultTapZoom,
	}
}

// Resolve treats the zero Options as DefaultOptions and fills the remaining
// zero scale settings otherwise.
func (o Options) Resolve() Options {
	if o == (Options{}) {
		return DefaultOptions()
	}
	return o.WithDefaults()
}

// WithDefaults fills non-positive scale settings with defaults. TopOffset
// may legitimately be zero and is kept as is.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.DefaultScale <= 0 {
		o.DefaultScale = d.DefaultScale
	}
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = d.MaxScale
	}
	if o.WheelFactor <= 0 {
		o.WheelFactor = d.WheelFactor
	}
	if o.TapZoomFactor <= 0 {
		o.TapZoomFactor = d.TapZoomFactor
	}
	return o
}

// Validate checks that the scale range is usable.
func (o Options) Validate() error {
	if o.MinScale > o.MaxScale {
		return fmt.Errorf("viewport: min scale %g exceeds max scale %g", o.MinScale, o.MaxScale)
	}
	if o.DefaultScale < o.MinScale || o.DefaultScale > o.MaxScale {
		return fmt.Errorf("viewport: default scale %g outside [%g, %g]", o.DefaultScale, o.MinScale, o.MaxScale)
	}
	return nil
}

func (o Options) cardSize(l layout.Layout) (w, h float64) {
	w, h = o.NodeWidth, o.NodeHeight
	if w <= 0 {
		w = l.Options.NodeWidth
	}
	if h <= 0 {
		h = l.Options.NodeHeight
	}
	if w <= 0 {
		w = layout.DefaultNodeWidth
	}
	if h <= 0 {
		h = layout.DefaultNodeHeight
	}
	return w, h
}

// Option adjusts [Options] when building a [Controller].
type Option func(*Options)

// WithOptions replaces all options, typically from configuration.
func WithOptions(opts Options) Option { return func(o *Options) { *o = opts } }

func WithScaleExtent(lo, hi float64) Option {
	return func(o *Options) { o.MinScale, o.MaxScale = lo, hi }
}

func WithDefaultScale(k float64) Option { return func(o *Options) { o.DefaultScale = k } }
func WithTopOffset(y float64) Option    { return func(o *Options) { o.TopOffset = y } }
func WithDoubleTapZoom(on bool) Option  { return func(o *Options) { o.DoubleTapZoom = on } }
func WithWheelFactor(f float64) Option  { return func(o *Options) { o.WheelFactor = f } }
func WithCardSize(w, h float64) Option  { return func(o *Options) { o.NodeWidth, o.NodeHeight = w, h } }
