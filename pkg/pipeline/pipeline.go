// Package pipeline runs the snapshot → layout → artifact pipeline.
//
// The same code path serves the CLI and the HTTP server:
//
//  1. Build: turn the snapshot's people into a [kin.Graph] and grow the
//     [hierarchy.Node] tree from the selected root
//  2. Layout: compute positions with [layout.Compute]
//  3. Render: write SVG, PNG, PDF, JSON or DOT
//
// A [Runner] adds caching around stages 2 and 3. Keys are content hashes of
// the people list and of the computed layout, so cached entries never go
// stale when a tree is edited; they are simply no longer looked up.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, snap, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	if res.Empty {
//	    // nothing to draw
//	}
//	svg := res.Artifacts["svg"]
//
// All stages are synchronous and pure apart from the cache; a Runner can be
// shared between goroutines.
//
// [kin.Graph]: github.com/matzehuels/kintree/pkg/core/kin.Graph
// [hierarchy.Node]: github.com/matzehuels/kintree/pkg/core/hierarchy.Node
// [layout.Compute]: github.com/matzehuels/kintree/pkg/core/layout.Compute
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// View names.
const (
	ViewTree     = "tree"
	ViewNodelink = "nodelink"
)

// DefaultView is the default visualization.
const DefaultView = ViewTree

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats. JSON is always the
// tree layout and DOT always the node-link graph, whatever the view.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ValidViews is the set of supported visualizations.
var ValidViews = map[string]bool{
	ViewTree:     true,
	ViewNodelink: true,
}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Layout options
	Layout layout.Options `json:"layout"`

	// Render options
	View        string   `json:"view,omitempty"`
	Formats     []string `json:"formats,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // node-link labels with dates and places
	Interactive bool     `json:"interactive,omitempty"`
	Title       string   `json:"title,omitempty"`
	Scale       float64  `json:"scale,omitempty"` // PNG scale factor

	// Width and Height, when set, render the tree view as a fixed viewport
	// instead of fitting the drawing. Transform defaults to the initial
	// viewport transform for that size.
	Width     float64             `json:"width,omitempty"`
	Height    float64             `json:"height,omitempty"`
	Transform *viewport.Transform `json:"transform,omitempty"`
	Viewport  viewport.Options    `json:"viewport"`

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the relationship graph built from the snapshot.
	Graph *kin.Graph

	// Root is the displayed hierarchy. Nil for an empty snapshot.
	Root *hierarchy.Node

	// Layout is the positioned tree.
	Layout layout.Layout

	// LayoutHash is the content hash of the layout JSON.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Empty is set when the snapshot had no people. Nothing is rendered.
	Empty bool

	// Dropped lists secondary parent edges left out of the tree view.
	Dropped []kin.Edge

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	People     int // people in the graph
	Placed     int // people reachable from the root
	Edges      int // parent edges in the tree
	Skipped    int // edge occurrences with a missing endpoint
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a view is valid.
func ValidateView(view string) error {
	if !ValidViews[view] {
		return errors.New(errors.ErrCodeInvalidView,
			"invalid view: %q (must be one of: tree, nodelink)", view)
	}
	return nil
}

// ParseFormats splits a comma-separated list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills zero layout settings.
func (o *Options) SetLayoutDefaults() {
	o.Layout = o.Layout.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults fills zero render settings.
func (o *Options) SetRenderDefaults() {
	if o.View == "" {
		o.View = DefaultView
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.Viewport = o.Viewport.Resolve()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateView(o.View); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if (o.Width > 0) != (o.Height > 0) {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must be set together")
	}
	if o.Transform != nil && !o.Transform.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid transform %v", *o.Transform)
	}
	if err := o.Viewport.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "viewport options")
	}
	return nil
}

// IsNodelink reports whether the node-link view is selected.
func (o *Options) IsNodelink() bool { return o.View == ViewNodelink }

// Fixed reports whether the tree view renders a fixed-size viewport.
func (o *Options) Fixed() bool { return o.Width > 0 && o.Height > 0 }

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	l := o.Layout.WithDefaults()
	return cache.LayoutKeyOpts{
		SiblingGutter: l.SiblingGutter,
		LevelGutter:   l.LevelGutter,
		NodeWidth:     l.NodeWidth,
		NodeHeight:    l.NodeHeight,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:      format,
		View:        o.View,
		Detailed:    o.Detailed,
		Interactive: o.Interactive,
		Title:       o.Title,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	if o.Fixed() {
		k.Width, k.Height = o.Width, o.Height
		if o.Transform != nil {
			k.Transform = o.Transform.String()
		} else {
			k.Transform = fmt.Sprintf("initial scale(%g) top(%g)", o.Viewport.DefaultScale, o.Viewport.TopOffset)
		}
	}
	return k
}

func (o *Options) String() string {
	return fmt.Sprintf("view=%s formats=%s", o.View, strings.Join(o.Formats, ","))
}
