package httpapi

import (
	"net/http"

	"acty-backend-go/internal/services"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	services.TokenPair
	Identity services.Identity `json:"identity"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	pair, identity, err := s.Identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, Identity: identity})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	pair, identity, err := s.Identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, Identity: identity})
}
