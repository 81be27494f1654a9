package httpapi

import (
	"net/http"

	"acty-backend-go/internal/services"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := CurrentIdentity(r)
	resp := MeResponse{Identity: identity}
	if identity.EmployeeID != "" {
		employee, err := s.Store.GetEmployee(r.Context(), identity.EmployeeID)
		if err != nil {
			writeFailure(w, r, services.WrapError(err, "load employee"))
			return
		}
		resp.Employee = &employee
	}
	if identity.StudentID != "" {
		student, err := s.Store.GetStudent(r.Context(), identity.StudentID)
		if err != nil {
			writeFailure(w, r, services.WrapError(err, "load student"))
			return
		}
		resp.Student = &student
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) ListRequirements(w http.ResponseWriter, r *http.Request) {
	items, err := s.Students.Requirements(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"defaults": s.Students.Defaults,
	})
}

func (s *Server) UpsertRequirement(w http.ResponseWriter, r *http.Request) {
	var req services.RequirementInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	row, err := s.Students.UpsertRequirement(r.Context(), chiParam(r, "faculty"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}
