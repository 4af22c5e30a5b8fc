package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cineplayer/internal/domain"
	"cineplayer/internal/subtitle"
)

type wsReady struct {
	Session string `json:"session"`
	Cues    int    `json:"cues"`
}

// handleSubtitleWS opens a subtitle session for ?media={id}&track={n}. The
// server loads the track's cues once, then pushes {"type":"cue"} frames
// whenever the active cue changes for the times the player reports.
func (s *Server) handleSubtitleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	id := domain.MediaID(strings.TrimSpace(query.Get("media")))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "media is required")
		return
	}

	track, err := s.subtitleTrack(r.Context(), id, query.Get("track"))
	if err != nil {
		writeSubtitleTrackError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	cues, err := s.manifests.Subtitle(ctx, track.URL)
	cancel()
	if err != nil {
		writeManifestError(w, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{
		id:     uuid.NewString(),
		media:  id,
		hub:    s.wsHub,
		conn:   conn,
		index:  subtitle.NewIndex(cues),
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
		logger: s.logger,
	}
	client.index.OnChange = func(cue *domain.Cue) {
		client.sendMessage("cue", cue)
	}
	if !s.wsHub.add(client) {
		_ = conn.Close()
		return
	}
	client.sendMessage("ready", wsReady{Session: client.id, Cues: len(client.index.Cues())})
	go client.writePump()
	go client.readPump()
}
