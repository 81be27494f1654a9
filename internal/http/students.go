package httpapi

import (
	"net/http"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/services"
)

type ScanRequest struct {
	Code string `json:"code" validate:"required,max=512"`
}

type ScanResponse struct {
	Message string     `json:"message"`
	History HistoryDTO `json:"history"`
}

func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	items, total, err := s.Students.ListStudents(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, PagedResponse[models.Student]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) StudentHours(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.Students.Dashboard(r.Context(), chiParam(r, "stdCode"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, dashboard)
}

func (s *Server) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	identity, _ := CurrentIdentity(r)
	row, err := s.Scans.Scan(r.Context(), req.Code, identity.StudentID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ScanResponse{Message: "Activity recorded", History: toHistoryDTO(row)})
}

func (s *Server) currentStudent(r *http.Request) (models.Student, error) {
	identity, _ := CurrentIdentity(r)
	student, err := s.Store.GetStudent(r.Context(), identity.StudentID)
	if err != nil {
		return models.Student{}, services.WrapError(err, "load student")
	}
	return student, nil
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	student, err := s.currentStudent(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	dashboard, err := s.Students.DashboardFor(r.Context(), student)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, dashboard)
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	student, err := s.currentStudent(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	rows, err := s.Students.History(r.Context(), student.ID, r.URL.Query().Get("category"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	for i := range rows {
		rows[i].StdCode = student.StdCode
		rows[i].StudentName = student.Name
	}
	WriteJSON(w, http.StatusOK, ListResponse[HistoryDTO]{Items: toHistoryDTOs(rows)})
}
