// Package server exposes the record store and the layout pipeline over HTTP.
//
// Authentication is handled in front of this server: the caller's identity
// arrives in the X-User-ID header and every record operation is scoped to
// it. Requests without the header are rejected with 401.
//
//	GET    /healthz
//	GET    /trees                     list the caller's trees
//	POST   /trees                     create a tree
//	GET    /trees/{id}                tree with its people
//	PATCH  /trees/{id}                rename / describe
//	DELETE /trees/{id}                delete with people and relationships
//	GET    /trees/{id}/layout         layout JSON
//	GET    /trees/{id}/render         svg, png, pdf, json or dot
//	POST   /trees/{id}/activate       resolve a click on a rendered viewport
//	POST   /people                    create a person
//	GET    /people/{id}
//	PATCH  /people/{id}
//	DELETE /people/{id}
//	POST   /people/{id}/media         attach a media reference
//	POST   /relationships
//	DELETE /relationships/{id}
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/store"
)

// UserHeader carries the authenticated caller's identifier.
const UserHeader = "X-User-ID"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server. Store is required; everything else has a
// usable zero value.
type Options struct {
	Store    store.Store
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Layout   layout.Options
	Viewport viewport.Options

	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the kintree HTTP API.
type Server struct {
	store    store.Store
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger
	layout   layout.Options
	viewport viewport.Options
	opts     Options
	router   chi.Router
}

// New builds the router. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		store:    opts.Store,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		logger:   opts.Logger,
		layout:   opts.Layout.WithDefaults(),
		viewport: opts.Viewport.Resolve(),
		opts:     opts,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.handleListTrees)
			r.Post("/", s.handleCreateTree)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTree)
				r.Patch("/", s.handleUpdateTree)
				r.Put("/", s.handleUpdateTree)
				r.Delete("/", s.handleDeleteTree)
				r.Get("/layout", s.handleLayout)
				r.Get("/render", s.handleRender)
				r.Post("/activate", s.handleActivate)
			})
		})

		r.Route("/people", func(r chi.Router) {
			r.Post("/", s.handleCreatePerson)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPerson)
				r.Patch("/", s.handleUpdatePerson)
				r.Put("/", s.handleUpdatePerson)
				r.Delete("/", s.handleDeletePerson)
				r.Post("/media", s.handleAddMedia)
			})
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Post("/", s.handleCreateRelationship)
			r.Delete("/{id}", s.handleDeleteRelationship)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}
