package server

import (
	"errors"
	"net/http"

	"schedr/internal/api"
)

var errMissingUserID = errors.New("user_id is required")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errors.New("authentication required")))
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// handleAccessibleUsers lists the users whose schedules the caller may
// browse alongside the ?selected= users.
func (s *Server) handleAccessibleUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	selected, err := queryIDs(r, "selected")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	ids, err := s.resolver.AccessibleUsers(r.Context(), actor, selected)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := make([]api.UserResponse, 0, len(ids))
	for _, id := range ids {
		user, err := s.store.GetUser(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if user == nil {
			continue
		}
		resp = append(resp, toUserResponse(*user))
	}
	s.writeJSON(w, http.StatusOK, resp)
}
