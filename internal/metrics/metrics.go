package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cineplayer",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cineplayer",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	PlaylistRewritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cineplayer",
		Name:      "playlist_rewrites_total",
		Help:      "Total number of master playlists rewritten.",
	})

	ManifestFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cineplayer",
		Name:      "manifest_fallbacks_total",
		Help:      "Total number of manifests served from the last-known-good cache.",
	})

	FetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cineplayer",
		Name:      "fetch_failures_total",
		Help:      "Total number of upstream fetch failures by kind (master, subtitle).",
	}, []string{"kind"})

	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cineplayer",
		Name:      "fetch_duration_seconds",
		Help:      "Upstream fetch duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	CuesParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cineplayer",
		Name:      "subtitle_cues_parsed_total",
		Help:      "Total number of subtitle cues parsed.",
	})

	SubtitleSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cineplayer",
		Name:      "subtitle_ws_sessions",
		Help:      "Number of open subtitle websocket sessions.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PlaylistRewritesTotal,
		ManifestFallbacksTotal,
		FetchFailuresTotal,
		FetchDuration,
		CuesParsedTotal,
		SubtitleSessions,
	)
}
