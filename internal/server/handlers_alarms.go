package server

import (
	"net/http"

	"schedr/internal/api"
)

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.alarms.List(r.Context(), actor, limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAckAlarm(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		if err := s.alarms.Ack(r.Context(), req.actor, req.id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: "alarm acknowledged", ID: req.id})
	})
}

func (s *Server) handleDeleteAlarm(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		if err := s.alarms.Delete(r.Context(), req.actor, req.id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: "alarm deleted", ID: req.id})
	})
}

func (s *Server) handleClearAlarms(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	cleared, err := s.alarms.Clear(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearAlarmsResponse{Message: "all alarms cleared", Cleared: cleared})
}
