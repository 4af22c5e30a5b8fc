package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cineplayer/internal/domain"
	domainports "cineplayer/internal/domain/ports"
	"cineplayer/internal/hls"
	"cineplayer/internal/manifest"
)

// ManifestService fetches and prepares playlists and subtitles for media items.
type ManifestService interface {
	Master(ctx context.Context, media domain.MediaItem) (manifest.Result, error)
	Variants(ctx context.Context, media domain.MediaItem) ([]hls.Variant, error)
	Subtitle(ctx context.Context, rawURL string) ([]domain.Cue, error)
}

const (
	defaultRateLimitRPS   = 100
	defaultRateLimitBurst = 200
	defaultMaxBodyBytes   = 8 << 20
)

type Server struct {
	repo           domainports.MediaRepository
	manifests      ManifestService
	allowedOrigins []string
	rateRPS        float64
	rateBurst      int
	maxBodyBytes   int64
	metricsEnabled bool
	fileRoot       string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins restricts CORS to the listed origins. Empty allows any.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 {
			s.rateRPS = rps
		}
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

// WithMaxBodyBytes caps request bodies for the tool endpoints.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithFileRoot accepts file:// media URLs inside dir. By default only
// http(s) URLs can be stored.
func WithFileRoot(dir string) ServerOption {
	return func(s *Server) {
		s.fileRoot = dir
	}
}

func WithMetrics(enabled bool) ServerOption {
	return func(s *Server) {
		s.metricsEnabled = enabled
	}
}

func NewServer(repo domainports.MediaRepository, manifests ManifestService, opts ...ServerOption) *Server {
	s := &Server{
		repo:           repo,
		manifests:      manifests,
		rateRPS:        defaultRateLimitRPS,
		rateBurst:      defaultRateLimitBurst,
		maxBodyBytes:   defaultMaxBodyBytes,
		metricsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/media", s.handleMedia)
	mux.HandleFunc("/media/", s.handleMediaByID)
	mux.HandleFunc("/tools/rewrite", s.handleToolRewrite)
	mux.HandleFunc("/tools/cues", s.handleToolCues)
	mux.HandleFunc("/ws/subtitles", s.handleSubtitleWS)
	mux.HandleFunc("/internal/health", s.handleHealth)
	if s.metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "cineplayer",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/internal/health" && !strings.HasPrefix(p, "/ws/")
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateRPS, s.rateBurst, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close disconnects all websocket sessions.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}

type healthResponse struct {
	Status           string `json:"status"`
	SubtitleSessions int    `json:"subtitleSessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", SubtitleSessions: s.wsHub.sessionCount()})
}
