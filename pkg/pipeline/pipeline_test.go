package pipeline

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func scenario() *family.Snapshot {
	return familytest.New("A", "B", "C", "D").
		Parent("A", "B").
		Parent("A", "C").
		Parent("B", "D").
		Snapshot("t1")
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"svg", []string{"svg"}},
		{"svg, PNG ,json", []string{"svg", "png", "json"}},
		{"svg,svg,,dot", []string{"svg", "dot"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateForRender(t *testing.T) {
	bad := viewport.Transform{X: 0, Y: 0, K: 0}
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"bad format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad view", Options{View: "tower"}, errors.ErrCodeInvalidView},
		{"width without height", Options{Width: 800}, errors.ErrCodeInvalidInput},
		{"invalid transform", Options{Width: 800, Height: 600, Transform: &bad}, errors.ErrCodeInvalidInput},
		{"inverted scale range", Options{Viewport: viewport.Options{MinScale: 3, MaxScale: 1}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForRender()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateForRenderDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if o.View != ViewTree {
		t.Errorf("View = %q, want %q", o.View, ViewTree)
	}
	if !reflect.DeepEqual(o.Formats, []string{FormatSVG}) {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Viewport.DefaultScale != viewport.DefaultScale {
		t.Errorf("Viewport.DefaultScale = %v, want %v", o.Viewport.DefaultScale, viewport.DefaultScale)
	}
}

func TestBuild(t *testing.T) {
	g, root := Build(scenario().People)
	if g.Len() != 4 {
		t.Fatalf("graph has %d people, want 4", g.Len())
	}
	if root == nil || root.ID() != "A" {
		t.Fatalf("root = %v, want A", root)
	}
	if root.Size() != 4 {
		t.Errorf("hierarchy size = %d, want 4", root.Size())
	}

	g, root = Build(nil)
	if !g.Empty() || root != nil {
		t.Errorf("Build(nil) = %v, %v; want empty graph and nil root", g, root)
	}
}

func TestComputeLayout(t *testing.T) {
	_, _, l := ComputeLayout(scenario().People, layout.Options{})
	want := map[string][2]float64{
		"A": {0, 0},
		"B": {-110, 120},
		"C": {110, 120},
		"D": {-110, 240},
	}
	for id, pos := range want {
		n, ok := l.Lookup(id)
		if !ok {
			t.Fatalf("%s not placed", id)
		}
		if n.X != pos[0] || n.Y != pos[1] {
			t.Errorf("%s at (%v,%v), want (%v,%v)", id, n.X, n.Y, pos[0], pos[1])
		}
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quietLogger())

	res, err := r.Execute(ctx, scenario(), Options{Formats: []string{"svg", "json", "dot"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Empty {
		t.Fatal("non-empty snapshot reported as empty")
	}
	if res.Stats.People != 4 || res.Stats.Placed != 4 || res.Stats.Edges != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.LayoutHash == "" {
		t.Error("LayoutHash not set")
	}
	for _, f := range []string{"svg", "json", "dot"} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !bytes.Contains(res.Artifacts["svg"], []byte(`data-person-id="D"`)) {
		t.Error("svg does not contain node D")
	}
	if !strings.HasPrefix(string(res.Artifacts["dot"]), "digraph") {
		t.Errorf("dot artifact = %.40q", res.Artifacts["dot"])
	}

	l, err := layout.Unmarshal(res.Artifacts["json"])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if l.Len() != 4 {
		t.Errorf("json layout has %d nodes, want 4", l.Len())
	}
}

func TestExecuteEmpty(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	for _, snap := range []*family.Snapshot{nil, {TreeID: "t", People: []family.Person{}}} {
		res, err := r.Execute(context.Background(), snap, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Empty {
			t.Error("Empty = false")
		}
		if len(res.Artifacts) != 0 {
			t.Errorf("artifacts = %v, want none", res.Artifacts)
		}
		if res.Layout.Nodes == nil || res.Layout.Links == nil {
			t.Error("empty layout should have non-nil slices")
		}
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), scenario(), Options{Formats: []string{"bmp"}})
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Fatalf("error = %v, want invalid format", err)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{Formats: []string{"svg", "json"}}
	first, err := r.Execute(ctx, scenario(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, scenario(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}
	if first.LayoutHash != second.LayoutHash {
		t.Error("layout hash changed between runs")
	}

	refreshed, err := r.Execute(ctx, scenario(), Options{Formats: opts.Formats, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh run hit the cache: %+v", refreshed.CacheInfo)
	}

	// A different gutter is a different layout.
	wide := Options{Formats: opts.Formats, Layout: layout.Options{SiblingGutter: 300}}
	res, err := r.Execute(ctx, scenario(), wide)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("changed layout options reused the cached layout")
	}
}

func TestRenderFixedViewport(t *testing.T) {
	_, _, l := ComputeLayout(scenario().People, layout.Options{})
	opts := Options{Width: 800, Height: 600}

	out, err := Render(context.Background(), l, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	initial := InitialTransform(l, opts)
	if initial != (viewport.Transform{X: 400, Y: viewport.DefaultTopOffset, K: viewport.DefaultScale}) {
		t.Errorf("InitialTransform = %v, want default top offset and scale", initial)
	}
	want := initial.String()
	if !bytes.Contains(out["svg"], []byte(want)) {
		t.Errorf("svg does not use initial transform %s", want)
	}

	custom := viewport.Transform{X: 10, Y: 20, K: 1.5}
	opts.Transform = &custom
	out, err = Render(context.Background(), l, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out["svg"], []byte(custom.String())) {
		t.Errorf("svg does not use transform %s", custom.String())
	}
}

func TestRenderNodelinkNeedsGraph(t *testing.T) {
	_, _, l := ComputeLayout(scenario().People, layout.Options{})
	_, err := Render(context.Background(), l, nil, Options{View: ViewNodelink})
	if err == nil {
		t.Fatal("expected error without graph")
	}
}

func TestActivate(t *testing.T) {
	_, _, l := ComputeLayout(scenario().People, layout.Options{})
	vopts := viewport.Options{DefaultScale: 1, TopOffset: 100}
	req := ActivateRequest{Width: 800, Height: 600}

	// Root sits at the horizontal centre, TopOffset from the top.
	req.X, req.Y = 400, 100
	if id, ok := Activate(context.Background(), "t1", l, vopts, req); !ok || id != "A" {
		t.Errorf("Activate(root) = %q, %v; want A, true", id, ok)
	}

	req.X, req.Y = 5, 5
	if id, ok := Activate(context.Background(), "t1", l, vopts, req); ok {
		t.Errorf("Activate(empty space) = %q, true", id)
	}

	// Panned so that C is at the centre.
	req.Transform = &viewport.Transform{X: 290, Y: 180, K: 1}
	req.X, req.Y = 400, 300
	if id, ok := Activate(context.Background(), "t1", l, vopts, req); !ok || id != "C" {
		t.Errorf("Activate(panned) = %q, %v; want C, true", id, ok)
	}
}
