package httpapi

import (
	"time"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

type volumeView struct {
	PID           string                 `json:"pid"`
	Label         string                 `json:"label"`
	Fields        map[string]string      `json:"fields,omitempty"`
	Metadata      []domain.MetadataEntry `json:"metadata"`
	ImageServerID int64                  `json:"image_server_id,omitempty"`
	Collections   []string               `json:"collections"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func newVolumeView(v *domain.Volume) volumeView {
	view := volumeView{
		PID:           v.PID,
		Label:         v.Label,
		Fields:        v.Fields,
		Metadata:      v.Metadata,
		ImageServerID: v.ImageServerID,
		Collections:   v.Collections,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if view.Metadata == nil {
		view.Metadata = []domain.MetadataEntry{}
	}
	if view.Collections == nil {
		view.Collections = []string{}
	}
	return view
}

type pageView struct {
	PID        string `json:"pid"`
	Position   int    `json:"position"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OCRPath    string `json:"ocr_path,omitempty"`
	DefaultOCR string `json:"default_ocr"`
}

func newPageView(p *domain.Page) pageView {
	view := pageView{
		PID:        p.PID,
		Position:   p.Position,
		Width:      p.Width,
		Height:     p.Height,
		DefaultOCR: string(p.DefaultOCR),
	}
	if p.HasSidecar() {
		view.OCRPath = *p.OCRPath
	}
	return view
}

type wordView struct {
	Content string `json:"content"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	Order   int    `json:"order"`
	Type    string `json:"type"`
}

type jobView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	Bundle    string    `json:"bundle"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type reportView struct {
	Pages     int      `json:"pages"`
	Persisted int      `json:"persisted"`
	Skipped   int      `json:"skipped"`
	Words     int      `json:"words"`
	Warnings  []string `json:"warnings"`
}

func newReportView(r *driving.OCRReport) reportView {
	view := reportView{
		Pages:     r.Pages,
		Persisted: r.Persisted,
		Skipped:   r.Skipped,
		Words:     r.Words,
		Warnings:  r.Warnings,
	}
	if view.Warnings == nil {
		view.Warnings = []string{}
	}
	return view
}

type acceptedView struct {
	JobID string   `json:"job_id"`
	Kind  string   `json:"kind"`
	Files []string `json:"files"`
}
