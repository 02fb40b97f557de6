package server

import (
	"net/http"

	"schedr/internal/api"
)

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req api.ScheduleCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.schedules.Create(r.Context(), actor, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	q, err := s.parseListQuery(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.schedules.List(r.Context(), actor, q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseListQuery(r *http.Request) (ListQuery, error) {
	var q ListQuery
	var err error

	if q.Limit, q.Offset, err = pagination(r); err != nil {
		return q, err
	}
	if q.ShowCompleted, err = queryBoolDefault(r, "show_completed", true); err != nil {
		return q, err
	}
	if q.CompletedOnly, err = queryBoolDefault(r, "completed_only", false); err != nil {
		return q, err
	}
	if q.ShowAllUsers, err = queryBoolDefault(r, "show_all_users", true); err != nil {
		return q, err
	}
	if q.SearchInTitle, err = queryBoolDefault(r, "search_in_title", true); err != nil {
		return q, err
	}
	if q.SearchInContent, err = queryBoolDefault(r, "search_in_content", true); err != nil {
		return q, err
	}
	if q.SearchInMemo, err = queryBoolDefault(r, "search_in_memo", true); err != nil {
		return q, err
	}
	if q.Start, err = queryTime(r, "start_date", s.schedules.loc); err != nil {
		return q, err
	}
	if q.End, err = queryTime(r, "end_date", s.schedules.loc); err != nil {
		return q, err
	}
	q.SearchTerms = splitCSV(r.URL.Query().Get("search_terms"))
	q.ExcludeTerms = splitCSV(r.URL.Query().Get("exclude_terms"))
	return q, nil
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.Get(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		var body api.ScheduleUpdateRequest
		if !s.decodeJSONReq(w, r, &body) {
			return
		}
		resp, err := s.schedules.Update(r.Context(), req.actor, req.id, body)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		if err := s.schedules.Delete(r.Context(), req.actor, req.id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: "schedule deleted", ID: req.id})
	})
}

func (s *Server) handleCompleteSchedule(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.Complete(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleUpdateMemo(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		var body api.MemoUpdateRequest
		if !s.decodeJSONReq(w, r, &body) {
			return
		}
		resp, err := s.schedules.UpdateMemo(r.Context(), req.actor, req.id, body.Memo)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleRequestCompletion(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.RequestCompletion(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, resp)
	})
}

func (s *Server) handleSchedulePermissions(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.Permissions(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleScheduleParent(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.Parent(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleScheduleChildren(w http.ResponseWriter, r *http.Request) {
	s.withPathID(w, r, func(req pathRequest) {
		resp, err := s.schedules.Children(r.Context(), req.actor, req.id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}
