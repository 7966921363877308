package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	apperr "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// runner returns a pipeline runner whose cache keys are scoped to owner,
// so one owner's entries can be dropped without touching the others.
func (s *Server) runner(owner string) *pipeline.Runner {
	keyer := cache.NewScopedKeyer(s.keyer, "owner:"+owner+":")
	return pipeline.NewRunner(s.cache, keyer, s.logger)
}

func (s *Server) snapshot(r *http.Request) (string, *family.Snapshot, error) {
	ctx := r.Context()
	owner := userFromContext(ctx)
	snap, err := s.store.Snapshot(ctx, owner, chi.URLParam(r, "id"))
	return owner, snap, err
}

// treeLayout lays out the snapshot through the cache.
func (s *Server) treeLayout(ctx context.Context, owner string, snap *family.Snapshot) (layout.Layout, error) {
	if snap.Empty() {
		return layout.Compute(nil, layout.WithOptions(s.layout)), nil
	}
	hash, err := cache.HashJSON(snap.People)
	if err != nil {
		return layout.Layout{}, err
	}
	_, root := pipeline.Build(snap.People)
	return s.runner(owner).Layout(ctx, hash, root, pipeline.Options{Layout: s.layout})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	owner, snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.treeLayout(r.Context(), owner, snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := layout.Marshal(l)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[pipeline.FormatJSON])
	_, _ = w.Write(data)
}

// handleRender serves one artifact. Query parameters:
//
//	format       svg (default), png, pdf, json, dot
//	view         tree (default) or nodelink
//	width,height render a fixed viewport at the initial transform
//	scale        PNG scale factor
//	detailed     node-link labels with dates and places
//	interactive  embed the pan/zoom script
//	title        SVG title
//
// A tree without people yields 204 No Content.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.renderOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	owner, snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner(owner).Execute(r.Context(), snap, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Layout:   s.layout,
		Viewport: s.viewport,
		View:     q.Get("view"),
		Title:    q.Get("title"),
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{f}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"width", &opts.Width},
		{"height", &opts.Height},
		{"scale", &opts.Scale},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return opts, apperr.New(apperr.ErrCodeInvalidInput, "invalid %s: %q", f.name, v)
		}
		*f.dst = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"detailed", &opts.Detailed},
		{"interactive", &opts.Interactive},
		{"refresh", &opts.Refresh},
	}
	for _, b := range bools {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apperr.New(apperr.ErrCodeInvalidInput, "invalid %s: %q", b.name, v)
		}
		*b.dst = on
	}

	if err := opts.ValidateForRender(); err != nil {
		return opts, err
	}
	return opts, nil
}

type activateResponse struct {
	Match    bool   `json:"match"`
	PersonID string `json:"personId,omitempty"`
}

// handleActivate resolves a click on a rendered viewport. The body is a
// pipeline.ActivateRequest; a miss is {"match": false}, not an error.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ActivateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.fail(w, r, apperr.New(apperr.ErrCodeInvalidInput, "width and height must be positive"))
		return
	}
	if req.Transform != nil && !req.Transform.Valid() {
		s.fail(w, r, apperr.New(apperr.ErrCodeInvalidInput, "invalid transform"))
		return
	}

	owner, snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.treeLayout(r.Context(), owner, snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id, ok := pipeline.Activate(r.Context(), snap.TreeID, l, s.viewport, req)
	writeJSON(w, http.StatusOK, activateResponse{Match: ok, PersonID: id})
}
