package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"acty-backend-go/internal/services"
)

type HealthResponse struct {
	Status          string                `json:"status"`
	Database        string                `json:"database"`
	Redis           string                `json:"redis"`
	ScanSubscribers int                   `json:"scanSubscribers"`
	Host            services.HostSnapshot `json:"host"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "up", Redis: "disabled"}
	if err := s.Store.Ping(ctx); err != nil {
		log.Printf("[health] database: %v", err)
		resp.Status = "unavailable"
		resp.Database = "down"
	}
	if s.Redis != nil {
		resp.Redis = "up"
		if !s.Redis.Healthy(ctx) {
			resp.Redis = "down"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		}
	}
	if s.Hub != nil {
		resp.ScanSubscribers = s.Hub.Subscribers()
	}
	resp.Host = services.CaptureHost(s.Config.MetricsDiskPath)

	status := http.StatusOK
	if resp.Database == "down" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
