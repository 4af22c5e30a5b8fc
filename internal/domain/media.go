package domain

import (
	"strings"
	"time"
)

type MediaID string

// MediaItem is everything the service knows about one playable item: where
// its master playlist lives and the rich track metadata for it.
type MediaItem struct {
	ID             MediaID             `json:"id"`
	Title          string              `json:"title,omitempty"`
	MasterURL      string              `json:"masterUrl"`
	AudioTracks    []AudioTrackInfo    `json:"audioTracks,omitempty"`
	SubtitleTracks []SubtitleTrackInfo `json:"subtitleTracks,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func (m MediaItem) Validate() error {
	if strings.TrimSpace(string(m.ID)) == "" {
		return ErrInvalidMedia
	}
	if strings.TrimSpace(m.MasterURL) == "" {
		return ErrInvalidMedia
	}
	return nil
}
