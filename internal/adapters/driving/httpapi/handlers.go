package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
)

func (s *Server) handleListVolumes(w http.ResponseWriter, r *http.Request) {
	vols, err := s.ports.Catalog.ListVolumes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]volumeView, len(vols))
	for i := range vols {
		views[i] = newVolumeView(&vols[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	vol, err := s.ports.Catalog.GetVolume(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVolumeView(vol))
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.ports.Catalog.ListPages(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]pageView, len(pages))
	for i := range pages {
		views[i] = newPageView(&pages[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	words, err := s.ports.Catalog.ListWords(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]wordView, len(words))
	for i, wd := range words {
		views[i] = wordView{
			Content: wd.Content,
			X:       wd.X,
			Y:       wd.Y,
			W:       wd.W,
			H:       wd.H,
			Order:   wd.Order,
			Type:    string(wd.ResourceType),
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.ports.Catalog.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]jobView, len(jobs))
	for i := range jobs {
		views[i] = jobView{
			ID:        jobs[i].ID,
			Kind:      string(jobs[i].Kind),
			State:     string(jobs[i].State),
			Bundle:    jobs[i].DisplayName(),
			Error:     jobs[i].Error,
			CreatedAt: jobs[i].CreatedAt,
			UpdatedAt: jobs[i].UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleVolumeOCR(w http.ResponseWriter, r *http.Request) {
	if s.ports.OCR == nil {
		writeMessage(w, http.StatusServiceUnavailable, "ocr is not enabled")
		return
	}
	s.writeReport(w, r, s.ports.OCR.AddOCR)
}

func (s *Server) handlePageOCR(w http.ResponseWriter, r *http.Request) {
	if s.ports.OCR == nil {
		writeMessage(w, http.StatusServiceUnavailable, "ocr is not enabled")
		return
	}
	s.writeReport(w, r, s.ports.OCR.AddOCRToPage)
}

func (s *Server) writeReport(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, pid string) (*driving.OCRReport, error),
) {
	report, err := run(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportView(report))
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrVolumeNotFoundFatal):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Error("HTTP: %v", err)
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("HTTP: encoding response: %v", err)
	}
}
