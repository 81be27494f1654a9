package httpapi

import (
	"bytes"
	"net/http"
	"strconv"

	"acty-backend-go/internal/services"
)

func (s *Server) GenerateQRCodes(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateQRInput
	if !s.decodeJSON(w, r, &req) {
		return
	}
	codes, err := s.QR.Generate(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ListResponse[QRCodeDTO]{Items: s.toQRCodeDTOs(codes)})
}

func (s *Server) ListActivityQRCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.QR.ListForActivity(r.Context(), chiParam(r, "activityId"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[QRCodeDTO]{Items: s.toQRCodeDTOs(codes)})
}

func (s *Server) QRImage(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := s.QR.RenderPNG(r.Context(), chiParam(r, "code"), size)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writePNG(w, png)
}

func (s *Server) QRSheet(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	var buf bytes.Buffer
	if err := s.QR.WriteSheet(r.Context(), &buf, chiParam(r, "activityId"), size); err != nil {
		writeFailure(w, r, err)
		return
	}
	writePNG(w, buf.Bytes())
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
