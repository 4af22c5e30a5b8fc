package apihttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cineplayer/internal/domain"
	"cineplayer/internal/manifest"
	"cineplayer/internal/tracks"
)

const (
	defaultMediaListLimit = 50
	staleHeader           = "X-Cineplayer-Stale"
	playlistContentType   = "application/vnd.apple.mpegurl"
)

type mediaList struct {
	Items []domain.MediaItem `json:"items"`
	Count int                `json:"count"`
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultMediaListLimit)
	items, err := s.repo.List(r.Context(), limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if items == nil {
		items = []domain.MediaItem{}
	}
	writeJSON(w, http.StatusOK, mediaList{Items: items, Count: len(items)})
}

func (s *Server) handleMediaByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/media/"), "/"), "/")
	id := domain.MediaID(strings.TrimSpace(parts[0]))
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found", "media not found")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			s.handleGetMedia(w, r, id)
		case http.MethodPut:
			s.handlePutMedia(w, r, id)
		case http.MethodDelete:
			s.handleDeleteMedia(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "master.m3u8":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMasterPlaylist(w, r, id)
	case len(parts) == 2 && parts[1] == "variants":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleVariants(w, r, id)
	case len(parts) == 4 && parts[1] == "subtitles" && parts[3] == "cues":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleSubtitleCues(w, r, id, parts[2])
	case len(parts) == 3 && parts[1] == "tracks" && parts[2] == "match":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMatchTracks(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	item, err := s.repo.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handlePutMedia(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	var item domain.MediaItem
	if err := decodeJSON(s.limitBody(w, r), &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	item.ID = id
	item.MasterURL = strings.TrimSpace(item.MasterURL)
	item.UpdatedAt = time.Now().UTC()
	if err := item.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "masterUrl is required")
		return
	}
	if err := s.validateMediaURLs(item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.repo.Upsert(r.Context(), item); err != nil {
		writeRepoError(w, err)
		return
	}
	s.wsHub.Notify(id, "media_updated", item)
	writeJSON(w, http.StatusOK, item)
}

// validateMediaURLs rejects URLs the fetcher would refuse, so that local
// files are never stored as media sources unless a file root is configured.
func (s *Server) validateMediaURLs(item domain.MediaItem) error {
	if err := manifest.ValidateURL(item.MasterURL, s.fileRoot); err != nil {
		return fmt.Errorf("masterUrl: %w", err)
	}
	for i, track := range item.SubtitleTracks {
		if strings.TrimSpace(track.URL) == "" {
			continue
		}
		if err := manifest.ValidateURL(track.URL, s.fileRoot); err != nil {
			return fmt.Errorf("subtitleTracks[%d].url: %w", i, err)
		}
	}
	return nil
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	if err := s.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	s.wsHub.Notify(id, "media_deleted", map[string]domain.MediaID{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMasterPlaylist(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	item, err := s.repo.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.manifests.Master(ctx, item)
	if err != nil {
		s.logger.Warn("master playlist unavailable",
			slog.String("media", string(id)),
			slog.String("error", err.Error()),
		)
		writeManifestError(w, err)
		return
	}

	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", "no-cache")
	if res.Stale {
		w.Header().Set(staleHeader, "1")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Playlist))
}

type variantResponse struct {
	Bandwidth        int64   `json:"bandwidth"`
	BandwidthLabel   string  `json:"bandwidthLabel"`
	AverageBandwidth int64   `json:"averageBandwidth,omitempty"`
	Resolution       string  `json:"resolution,omitempty"`
	FrameRate        float64 `json:"frameRate,omitempty"`
	Codecs           string  `json:"codecs,omitempty"`
	Audio            string  `json:"audio,omitempty"`
	URI              string  `json:"uri"`
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	item, err := s.repo.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	variants, err := s.manifests.Variants(ctx, item)
	if err != nil {
		writeManifestError(w, err)
		return
	}

	out := make([]variantResponse, 0, len(variants))
	for _, v := range variants {
		out = append(out, variantResponse{
			Bandwidth:        v.Bandwidth,
			BandwidthLabel:   domain.FormatBitrate(float64(v.Bandwidth)),
			AverageBandwidth: v.AverageBandwidth,
			Resolution:       v.Resolution,
			FrameRate:        v.FrameRate,
			Codecs:           v.Codecs,
			Audio:            v.Audio,
			URI:              v.URI,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

var errNoSubtitleTrack = errors.New("subtitle track not found")

// subtitleTrack returns the n-th subtitle track of a media item. Tracks
// without a URL cannot be fetched and count as missing.
func (s *Server) subtitleTrack(ctx context.Context, id domain.MediaID, rawIndex string) (domain.SubtitleTrackInfo, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.SubtitleTrackInfo{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(rawIndex))
	if err != nil || n < 0 || n >= len(item.SubtitleTracks) {
		return domain.SubtitleTrackInfo{}, errNoSubtitleTrack
	}
	track := item.SubtitleTracks[n]
	if strings.TrimSpace(track.URL) == "" {
		return domain.SubtitleTrackInfo{}, errNoSubtitleTrack
	}
	return track, nil
}

func writeSubtitleTrackError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoSubtitleTrack) {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeRepoError(w, err)
}

func (s *Server) handleSubtitleCues(w http.ResponseWriter, r *http.Request, id domain.MediaID, rawIndex string) {
	track, err := s.subtitleTrack(r.Context(), id, rawIndex)
	if err != nil {
		writeSubtitleTrackError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cues, err := s.manifests.Subtitle(ctx, track.URL)
	if err != nil {
		writeManifestError(w, err)
		return
	}
	if cues == nil {
		cues = []domain.Cue{}
	}
	writeJSON(w, http.StatusOK, cues)
}

// matchTracksRequest carries the options the player discovered. The
// optional selected indexes are picker positions to resolve to options.
type matchTracksRequest struct {
	Audio            []domain.TrackOption `json:"audio"`
	Subtitles        []domain.TrackOption `json:"subtitles"`
	SelectedAudio    *int                 `json:"selectedAudio,omitempty"`
	SelectedSubtitle *int                 `json:"selectedSubtitle,omitempty"`
}

type matchTracksResponse struct {
	Audio             []domain.MatchedTrack[domain.AudioTrackInfo]    `json:"audio"`
	Subtitles         []domain.MatchedTrack[domain.SubtitleTrackInfo] `json:"subtitles"`
	DefaultAudioIndex int                                             `json:"defaultAudioIndex"`
	SelectedAudio     *domain.TrackOption                             `json:"selectedAudio,omitempty"`
	SelectedSubtitle  *domain.TrackOption                             `json:"selectedSubtitle,omitempty"`
}

func (s *Server) handleMatchTracks(w http.ResponseWriter, r *http.Request, id domain.MediaID) {
	var body matchTracksRequest
	if err := decodeJSON(s.limitBody(w, r), &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	item, err := s.repo.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	subtitleTracks := item.SubtitleTracks
	if len(subtitleTracks) == 0 {
		subtitleTracks = tracks.SubtitleTracksFromOptions(body.Subtitles)
	}

	resp := matchTracksResponse{
		Audio:             tracks.MatchAudio(item.AudioTracks, body.Audio),
		Subtitles:         tracks.MatchSubtitles(subtitleTracks, body.Subtitles),
		DefaultAudioIndex: tracks.DefaultAudioIndex(item.AudioTracks),
	}
	if body.SelectedAudio != nil {
		if opt, ok := tracks.SelectedOption(resp.Audio, body.Audio, *body.SelectedAudio); ok {
			resp.SelectedAudio = &opt
		}
	}
	if body.SelectedSubtitle != nil {
		if opt, ok := tracks.SelectedOption(resp.Subtitles, body.Subtitles, *body.SelectedSubtitle); ok {
			resp.SelectedSubtitle = &opt
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
