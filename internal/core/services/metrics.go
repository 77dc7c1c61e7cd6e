package services

import (
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// nopMetrics discards counters when no Metrics adapter is wired.
type nopMetrics struct{}

func (nopMetrics) JobFinished(domain.JobKind, domain.ErrorKind) {}
func (nopMetrics) PagesBuilt(int)                               {}
func (nopMetrics) OCRPage(string, int)                          {}
func (nopMetrics) Retried()                                     {}

func metricsOrNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
