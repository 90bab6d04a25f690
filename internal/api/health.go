package api

import (
	"net/http"
	"time"

	"github.com/kjannette/market-rates-backend/internal/scheduler"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
	Ingest   string `json:"ingest"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"
	if err := s.store.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
		status = "degraded"
	}

	ingestStatus := "not scheduled"
	if s.ingest != nil {
		switch last := s.ingest.LastRun(); {
		case last == nil:
			ingestStatus = "pending"
		case last.Error != "":
			ingestStatus = "failing"
		default:
			ingestStatus = "ok"
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Database: dbStatus, Ingest: ingestStatus},
	})
}

type ingestStatusResponse struct {
	Scheduled bool                 `json:"scheduled"`
	LastRun   *scheduler.RunStatus `json:"lastRun"`
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeJSON(w, http.StatusOK, ingestStatusResponse{})
		return
	}
	writeJSON(w, http.StatusOK, ingestStatusResponse{Scheduled: true, LastRun: s.ingest.LastRun()})
}
