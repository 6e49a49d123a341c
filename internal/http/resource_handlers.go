package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"missionctl/internal/resource"
)

// handleCollection serves list and create for one resource collection.
func (r *Router) handleCollection(s resource.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			r.listResources(w, req, s)
		case http.MethodPost:
			r.createResource(w, req, s)
		default:
			r.methodNotAllowed(w)
		}
	}
}

// handleItem serves get, patch and delete for one row.
func (r *Router) handleItem(s resource.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(req.URL.Path, apiPrefix+s.Name+"/")
		if id == "" || strings.Contains(id, "/") {
			r.notFound(w)
			return
		}
		switch req.Method {
		case http.MethodGet:
			r.getResource(w, req, s, id)
		case http.MethodPatch:
			r.patchResource(w, req, s, id)
		case http.MethodDelete:
			r.deleteResource(w, req, s, id)
		default:
			r.methodNotAllowed(w)
		}
	}
}

func (r *Router) listResources(w http.ResponseWriter, req *http.Request, s resource.Schema) {
	filters := make(map[string]string)
	for _, field := range s.Filters {
		if value := req.URL.Query().Get(field); value != "" {
			filters[field] = value
		}
	}
	rows, err := r.store.List(req.Context(), s.Table, filters, s.OrderBy, s.Descending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (r *Router) createResource(w http.ResponseWriter, req *http.Request, s resource.Schema) {
	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Validation runs before any store call; no partial writes.
	if err := s.ValidateCreate(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := r.store.Insert(req.Context(), s.Table, s.BuildRow(body, time.Now()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (r *Router) getResource(w http.ResponseWriter, req *http.Request, s resource.Schema, id string) {
	row, err := r.store.Get(req.Context(), s.Table, id)
	if err != nil {
		// Missing rows and query failures collapse into 404 here;
		// compatible behaviour, kept on purpose.
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (r *Router) patchResource(w http.ResponseWriter, req *http.Request, s resource.Schema, id string) {
	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.ValidateUpdate(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := r.store.Update(req.Context(), s.Table, id, s.BuildPatch(body, time.Now()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (r *Router) deleteResource(w http.ResponseWriter, req *http.Request, s resource.Schema, id string) {
	if err := r.store.Delete(req.Context(), s.Table, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
