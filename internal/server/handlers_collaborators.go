package server

import (
	"errors"
	"net/http"

	"schedr/internal/api"
	"schedr/internal/models"
	"schedr/internal/permission"
)

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		collaborators, err := s.resolver.ListCollaborators(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeCollaboratorError(w, r, err)
			return
		}
		resp := make([]api.CollaboratorResponse, 0, len(collaborators))
		for _, c := range collaborators {
			resp = append(resp, toCollaboratorResponse(c))
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		var body api.CollaboratorRequest
		if !s.decodeJSONReq(w, r, &body) {
			return
		}
		if body.UserID <= 0 {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(errMissingUserID, ErrCodeInvalidCollaborator))
			return
		}

		caps := capabilitiesPatch(body).Apply(models.DefaultCapabilities())
		share, created, err := s.resolver.AddCollaborator(r.Context(), req.actor, req.id, body.UserID, &caps)
		if err != nil {
			s.writeCollaboratorError(w, r, err)
			return
		}
		resp := toShareResponse(*share)
		resp.Created = created
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		s.writeJSON(w, status, resp)
	})
}

func (s *Server) handleUpdateCollaborator(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		userID, ok := s.pathIDOrBadRequest(w, r, "user_id")
		if !ok {
			return
		}
		var body api.CollaboratorRequest
		if !s.decodeJSONReq(w, r, &body) {
			return
		}

		share, err := s.resolver.UpdateCollaborator(r.Context(), req.actor, req.id, userID, capabilitiesPatch(body))
		if err != nil {
			s.writeCollaboratorError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toShareResponse(*share))
	})
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		userID, ok := s.pathIDOrBadRequest(w, r, "user_id")
		if !ok {
			return
		}
		if err := s.resolver.RemoveCollaborator(r.Context(), req.actor, req.id, userID); err != nil {
			s.writeCollaboratorError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) writeCollaboratorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, permission.ErrCollaboratorNotFound):
		err = notFoundCode(err, ErrCodeCollaboratorNotFound)
	case errors.Is(err, permission.ErrUnknownGrantee):
		err = badRequestCode(err, ErrCodeInvalidCollaborator)
	}
	s.writeServiceError(w, r, err)
}

func capabilitiesPatch(req api.CollaboratorRequest) models.CapabilitiesPatch {
	return models.CapabilitiesPatch{
		CanEdit:     req.CanEdit,
		CanDelete:   req.CanDelete,
		CanComplete: req.CanComplete,
		CanShare:    req.CanShare,
		Role:        req.Role,
	}
}
