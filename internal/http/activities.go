package httpapi

import (
	"net/http"

	"acty-backend-go/internal/services"
)

type UpdateActivityRequest struct {
	Status string `json:"status" validate:"required"`
}

type ParticipantRequest struct {
	StdCode string `json:"stdCode" validate:"required,max=32"`
}

func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.Activities.List(r.Context(), q.Get("search"), q.Get("category"), q.Get("status"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	items := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toActivityDTO(row))
	}
	WriteJSON(w, http.StatusOK, ListResponse[ActivityDTO]{Items: items})
}

func (s *Server) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req services.CreateActivityInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	identity, _ := CurrentIdentity(r)
	item, err := s.Activities.Create(r.Context(), req, identity.EmployeeID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toActivityDTO(item))
}

func (s *Server) GetActivity(w http.ResponseWriter, r *http.Request) {
	item, err := s.Activities.Get(r.Context(), chiParam(r, "activityId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toActivityDTO(item))
}

func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req UpdateActivityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	item, err := s.Activities.UpdateStatus(r.Context(), chiParam(r, "activityId"), req.Status)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toActivityDTO(item))
}

func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.Activities.Delete(r.Context(), chiParam(r, "activityId")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListParticipants(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Activities.Participants(r.Context(), chiParam(r, "activityId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[HistoryDTO]{Items: toHistoryDTOs(rows)})
}

func (s *Server) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	row, err := s.Scans.RecordManual(r.Context(), chiParam(r, "activityId"), req.StdCode)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toHistoryDTO(row))
}

func (s *Server) RecentHistory(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	rows, total, err := s.Activities.RecentScans(r.Context(), page, pageSize)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, PagedResponse[HistoryDTO]{
		Items:    toHistoryDTOs(rows),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
