package layout

// Default spacing, matching a tidy tree with nodeSize(220, 120).
const (
	DefaultSiblingGutter = 220.0
	DefaultLevelGutter   = 120.0
	DefaultNodeWidth     = 160.0
	DefaultNodeHeight    = 60.0
)

// Options controls spacing and card size.
type Options struct {
	SiblingGutter float64 `json:"siblingGutter" toml:"sibling_gutter"`
	LevelGutter   float64 `json:"levelGutter" toml:"level_gutter"`
	NodeWidth     float64 `json:"nodeWidth" toml:"node_width"`
	NodeHeight    float64 `json:"nodeHeight" toml:"node_height"`
}

// DefaultOptions returns the default spacing.
func DefaultOptions() Options {
	return Options{
		SiblingGutter: DefaultSiblingGutter,
		LevelGutter:   DefaultLevelGutter,
		NodeWidth:     DefaultNodeWidth,
		NodeHeight:    DefaultNodeHeight,
	}
}

// WithDefaults returns a copy with every non-positive field replaced by its
// default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.SiblingGutter <= 0 {
		o.SiblingGutter = d.SiblingGutter
	}
	if o.LevelGutter <= 0 {
		o.LevelGutter = d.LevelGutter
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	return o
}

// Option adjusts [Options] for a single [Compute] call.
type Option func(*Options)

func WithSiblingGutter(v float64) Option { return func(o *Options) { o.SiblingGutter = v } }
func WithLevelGutter(v float64) Option   { return func(o *Options) { o.LevelGutter = v } }

// WithNodeSize sets the card size used for bounds and hit-testing.
func WithNodeSize(w, h float64) Option {
	return func(o *Options) { o.NodeWidth, o.NodeHeight = w, h }
}

// WithOptions replaces all options at once, typically from configuration.
func WithOptions(opts Options) Option { return func(o *Options) { *o = opts } }
