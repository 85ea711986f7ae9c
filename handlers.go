package sitehop

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	var req Request

	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.handleError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
	} else {
		query := r.URL.Query()
		req.URL = query.Get("url")
		req.Permalink = query.Get("permalink")
		req.Site = query.Get("site")
	}

	resolution, err := s.Resolve(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resolution)
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	registry := s.Registry()
	if registry == nil {
		s.handleError(w, r, ErrNoSites)
		return
	}

	sites := registry.Sites()
	summaries := make([]siteSummary, len(sites))
	for i, s := range sites {
		summaries[i] = siteSummary{ID: s.ID, Link: s.Link, HTTPOnly: s.HTTPOnly}
	}

	writeJSON(w, http.StatusOK, summaries)
}

type siteSummary struct {
	ID       string `json:"id"`
	Link     string `json:"link"`
	HTTPOnly bool   `json:"httpOnly"`
}

var errBadRequest = errors.New("bad request")

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if s.OnError != nil {
		s.OnError(w, r, err)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrMissingURL), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNoSites):
		status = http.StatusServiceUnavailable
	}

	s.Logger.Printf("Errored %d for %s: %v", status, r.URL.Path, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
