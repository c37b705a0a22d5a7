// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogVideos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidserve_catalog_videos",
		Help: "Number of videos in the in-memory catalog",
	})

	catalogReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_catalog_reloads_total",
		Help: "Catalog load attempts by trigger and result",
	}, []string{"trigger", "result"}) // trigger=startup|api|signal|watch, result=success|failure

	catalogRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_catalog_registrations_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"}) // outcome=created|duplicate|invalid|persist_failed

	catalogSynthesized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidserve_catalog_synthesized_videos",
		Help: "Videos discovered by directory scan but absent from the index file (last load)",
	})
)

// SetCatalogSize records the current catalog size.
func SetCatalogSize(n int) {
	catalogVideos.Set(float64(n))
}

// SetCatalogSynthesized records how many entries the last scan synthesized.
func SetCatalogSynthesized(n int) {
	catalogSynthesized.Set(float64(n))
}

// IncCatalogReload records a catalog load attempt.
func IncCatalogReload(trigger string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	catalogReloadsTotal.WithLabelValues(trigger, result).Inc()
}

// IncRegistration records a registration outcome.
func IncRegistration(outcome string) {
	catalogRegistrationsTotal.WithLabelValues(outcome).Inc()
}
