package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// treeDetail is a tree with its people, edges and media.
type treeDetail struct {
	store.Tree
	People []family.Person `json:"people"`
}

// =============================================================================
// Trees
// =============================================================================

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := s.store.ListTrees(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trees)
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var in store.TreeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	tree, err := s.store.CreateTree(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tree)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, id := userFromContext(ctx), chi.URLParam(r, "id")

	tree, err := s.store.GetTree(ctx, owner, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.store.Snapshot(ctx, owner, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treeDetail{Tree: *tree, People: snap.People})
}

func (s *Server) handleUpdateTree(w http.ResponseWriter, r *http.Request) {
	var in store.TreeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	tree, err := s.store.UpdateTree(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTree(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, "Tree deleted")
}

// =============================================================================
// People
// =============================================================================

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var in store.PersonInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.CreatePerson(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPerson(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var in store.PersonInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.UpdatePerson(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePerson(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, "Person deleted")
}

func (s *Server) handleAddMedia(w http.ResponseWriter, r *http.Request) {
	var in family.Media
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.store.AddMedia(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// =============================================================================
// Relationships
// =============================================================================

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var in store.RelationshipInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	rel, err := s.store.CreateRelationship(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRelationship(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, "Relationship deleted")
}
