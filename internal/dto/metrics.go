package dto

import "time"

// MetricsSnapshot is a lightweight JSON view over the Prometheus collectors.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StatusAppends            uint64    `json:"status_appends"`
	Conversions              uint64    `json:"conversions"`
	DegradedReports          uint64    `json:"degraded_reports"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
