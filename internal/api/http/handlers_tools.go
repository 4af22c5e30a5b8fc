package apihttp

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cineplayer/internal/domain"
	"cineplayer/internal/hls"
	"cineplayer/internal/metrics"
	"cineplayer/internal/subtitle"
)

type rewriteRequest struct {
	Playlist    string                  `json:"playlist"`
	BaseURL     string                  `json:"baseUrl"`
	AudioTracks []domain.AudioTrackInfo `json:"audioTracks"`
}

// handleToolRewrite rewrites a playlist supplied in the request body. The
// base URL is optional; without it relative URIs are left alone.
func (s *Server) handleToolRewrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body rewriteRequest
	if err := decodeJSON(s.limitBody(w, r), &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	var base *url.URL
	if raw := strings.TrimSpace(body.BaseURL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || !parsed.IsAbs() {
			writeError(w, http.StatusBadRequest, "invalid_request", "baseUrl must be an absolute url")
			return
		}
		base = parsed
	}

	out := hls.RewriteMasterPlaylist(body.Playlist, base, body.AudioTracks)
	metrics.PlaylistRewritesTotal.Inc()

	w.Header().Set("Content-Type", playlistContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// handleToolCues parses the raw subtitle file in the request body. With
// ?at= (seconds or a cue timestamp) only the cue shown at that time is
// returned.
func (s *Server) handleToolCues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	at, hasAt, ok := parsePlaybackTime(r.URL.Query().Get("at"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "at must be a non-negative time")
		return
	}

	raw, err := io.ReadAll(s.limitBody(w, r).Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "subtitle file too large")
		return
	}

	index := subtitle.NewIndex(nil)
	index.Load(subtitle.Decode(raw))
	metrics.CuesParsedTotal.Add(float64(len(index.Cues())))

	cues := []domain.Cue{}
	switch {
	case hasAt:
		index.UpdateTime(at)
		if cue, active := index.Active(); active {
			cues = append(cues, cue)
		}
	case index.IsActive():
		cues = index.Cues()
	}
	writeJSON(w, http.StatusOK, cues)
}

// parsePlaybackTime reads "12.5" or "00:00:12,500". hasValue is false for an
// empty string; ok is false for anything unparseable or negative.
func parsePlaybackTime(raw string) (t float64, hasValue, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, true
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, true, v >= 0
	}
	v, parsed := subtitle.ParseTimestamp(raw)
	return v, true, parsed && v >= 0
}
