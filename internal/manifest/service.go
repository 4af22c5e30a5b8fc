package manifest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cineplayer/internal/domain"
	"cineplayer/internal/hls"
	"cineplayer/internal/metrics"
	"cineplayer/internal/subtitle"
)

// ErrNoFallback is returned when the upstream fetch failed and nothing is
// cached for the item.
var ErrNoFallback = errors.New("manifest unavailable and no fallback cached")

// Source returns the raw bytes behind a URL.
type Source interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Result is a playlist ready to serve. Stale is set when it came from the
// fallback cache instead of a fresh fetch.
type Result struct {
	Playlist string
	Stale    bool
}

type Service struct {
	source Source
	store  Store
	logger *slog.Logger
}

func NewService(source Source, store Store, logger *slog.Logger) *Service {
	if store == nil {
		store = NewMemoryStore(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, store: store, logger: logger}
}

// Master fetches and rewrites the item's master playlist. When the fetch
// fails the last good playlist for the item is served instead.
func (s *Service) Master(ctx context.Context, media domain.MediaItem) (Result, error) {
	key := string(media.ID)

	started := time.Now()
	raw, err := s.source.Fetch(ctx, media.MasterURL)
	metrics.FetchDuration.WithLabelValues("master").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.FetchFailuresTotal.WithLabelValues("master").Inc()
		return s.fallback(ctx, key, err)
	}

	rewritten := hls.RewriteMasterPlaylist(string(raw), parseMasterURL(media.MasterURL), media.AudioTracks)
	metrics.PlaylistRewritesTotal.Inc()

	cached, _, getErr := s.store.Get(ctx, key)
	if getErr != nil {
		s.logger.Warn("fallback cache read failed", slog.String("media", key), slog.String("error", getErr.Error()))
	}
	if setErr := s.store.Set(ctx, key, cached.Remember(raw, []byte(rewritten))); setErr != nil {
		s.logger.Warn("fallback cache write failed", slog.String("media", key), slog.String("error", setErr.Error()))
	}
	return Result{Playlist: rewritten}, nil
}

func (s *Service) fallback(ctx context.Context, key string, fetchErr error) (Result, error) {
	cached, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("fallback cache read failed", slog.String("media", key), slog.String("error", err.Error()))
	}
	if ok {
		if playlist, ok := cached.Fallback(); ok {
			metrics.ManifestFallbacksTotal.Inc()
			s.logger.Warn("serving cached manifest",
				slog.String("media", key),
				slog.String("error", fetchErr.Error()),
			)
			return Result{Playlist: string(playlist), Stale: true}, nil
		}
	}
	return Result{}, fmt.Errorf("fetch master for %s: %w: %w", key, ErrNoFallback, fetchErr)
}

// Variants lists the variant streams of the item's current playlist.
func (s *Service) Variants(ctx context.Context, media domain.MediaItem) ([]hls.Variant, error) {
	res, err := s.Master(ctx, media)
	if err != nil {
		return nil, err
	}
	return hls.Variants(res.Playlist, parseMasterURL(media.MasterURL)), nil
}

// Subtitle fetches a subtitle file and parses it into cues.
func (s *Service) Subtitle(ctx context.Context, rawURL string) ([]domain.Cue, error) {
	started := time.Now()
	raw, err := s.source.Fetch(ctx, rawURL)
	metrics.FetchDuration.WithLabelValues("subtitle").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.FetchFailuresTotal.WithLabelValues("subtitle").Inc()
		return nil, fmt.Errorf("fetch subtitle: %w", err)
	}
	cues := subtitle.Parse(subtitle.Decode(raw))
	metrics.CuesParsedTotal.Add(float64(len(cues)))
	return cues, nil
}

func parseMasterURL(raw string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return u
}
