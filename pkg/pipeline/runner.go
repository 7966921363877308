package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/render/nodelink"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete build → layout → render pipeline with caching.
// A snapshot without people yields a Result with Empty set and no artifacts.
func (r *Runner) Execute(ctx context.Context, snap *family.Snapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Build
	buildStart := time.Now()
	var people []family.Person
	if snap != nil {
		people = snap.People
	}
	g, root := Build(people)
	result.Graph = g
	result.Root = root
	result.Dropped = g.Dropped()
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.People = g.Len()
	result.Stats.Edges = len(g.Edges())
	result.Stats.Skipped = g.Skipped()
	if root != nil {
		result.Stats.Placed = root.Size()
	}
	observability.Pipeline().OnBuildComplete(ctx, result.Stats.People, result.Stats.Placed,
		len(result.Dropped), result.Stats.BuildTime)

	if snap.Empty() {
		result.Empty = true
		result.Layout = layout.Compute(nil, layout.WithOptions(opts.Layout))
		r.Logger.Info("empty tree, nothing to render")
		return result, nil
	}

	r.Logger.Info("built hierarchy",
		"people", result.Stats.People,
		"placed", result.Stats.Placed,
		"dropped", len(result.Dropped),
		"duration", result.Stats.BuildTime)
	if result.Stats.Skipped > 0 {
		r.Logger.Warn("skipped relationships with unknown people", "count", result.Stats.Skipped)
	}

	snapHash, err := cache.HashJSON(snap.People)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot: %w", err)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, snapHash, root, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	if data, err := layout.Marshal(l); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("computed layout",
		"nodes", l.Len(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"view", opts.View,
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo lays out root with caching and returns cache hit info.
// snapshotHash identifies the people the hierarchy was built from.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, snapshotHash string, root *hierarchy.Node, opts Options) (layout.Layout, bool, error) {
	opts.SetLayoutDefaults()
	cacheKey := r.Keyer.LayoutKey(snapshotHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := layout.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Unreadable entries are recomputed and overwritten.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	n := 0
	if root != nil {
		n = root.Size()
	}
	observability.Pipeline().OnLayoutStart(ctx, n)
	start := time.Now()
	l := layout.Compute(root, layout.WithOptions(opts.Layout))
	observability.Pipeline().OnLayoutComplete(ctx, l.Len(), time.Since(start), nil)

	if data, err := layout.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Debug("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, snapshotHash string, root *hierarchy.Node, opts Options) (layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, snapshotHash, root, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The hit flag is only set when every requested format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, g *kin.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	sources, err := sourceHashes(l, g, opts)
	if err != nil {
		return nil, false, err
	}
	keyFor := func(format string) string {
		return r.Keyer.ArtifactKey(sources.forFormat(format, opts), opts.ArtifactKeyOpts(format))
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, keyFor(format))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.View, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.View, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, keyFor(format), data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("artifact cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, g *kin.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// sources holds the content hashes artifacts are keyed by. Tree drawings
// depend on the layout only; node-link drawings on the graph only.
type sources struct {
	layout string
	graph  string
}

func sourceHashes(l layout.Layout, g *kin.Graph, opts Options) (sources, error) {
	data, err := layout.Marshal(l)
	if err != nil {
		return sources{}, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	s := sources{layout: cache.Hash(data)}
	if g != nil {
		s.graph = cache.Hash([]byte(nodelink.ToDOT(g, nodelinkOptions(opts))))
	}
	return s, nil
}

func (s sources) forFormat(format string, opts Options) string {
	switch {
	case format == FormatJSON:
		return s.layout
	case format == FormatDOT, opts.IsNodelink():
		return s.graph
	}
	return s.layout
}
