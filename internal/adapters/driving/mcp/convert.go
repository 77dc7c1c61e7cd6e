package mcp

import (
	"fmt"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

func volumeOutput(vol *domain.Volume, pages int) VolumeOutput {
	out := VolumeOutput{
		PID:           vol.PID,
		Label:         vol.Label,
		Fields:        vol.Fields,
		Metadata:      make([]MetadataOutput, len(vol.Metadata)),
		ImageServerID: vol.ImageServerID,
		Collections:   vol.Collections,
		Pages:         pages,
	}
	for i, m := range vol.Metadata {
		out.Metadata[i] = MetadataOutput{Label: m.Label, Value: metadataValue(m.Value)}
	}
	return out
}

func metadataValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func pageOutput(p *domain.Page) PageOutput {
	out := PageOutput{
		PID:      p.PID,
		Position: p.Position,
		Width:    p.Width,
		Height:   p.Height,
	}
	if p.HasSidecar() {
		out.OCRPath = *p.OCRPath
	}
	return out
}

func reportOutput(report *driving.OCRReport, err error) (AddOCROutput, error) {
	if err != nil {
		return AddOCROutput{}, err
	}
	return AddOCROutput{
		Pages:     report.Pages,
		Persisted: report.Persisted,
		Skipped:   report.Skipped,
		Words:     report.Words,
		Warnings:  report.Warnings,
	}, nil
}
