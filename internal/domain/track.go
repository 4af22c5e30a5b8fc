package domain

// AudioTrackInfo is caller-known metadata for one audio track. Index, when
// set, is matched against a leading number in a playlist NAME ("2. Commentary").
type AudioTrackInfo struct {
	ID           string `json:"id,omitempty"`
	Index        *int   `json:"index,omitempty"`
	LanguageCode string `json:"language,omitempty"`
	DisplayName  string `json:"displayName"`
	IsDefault    bool   `json:"isDefault,omitempty"`
}

type SubtitleTrackInfo struct {
	ID           string `json:"id,omitempty"`
	LanguageCode string `json:"language,omitempty"`
	DisplayName  string `json:"displayName"`
	IsForced     bool   `json:"isForced,omitempty"`
	URL          string `json:"url,omitempty"`
}

// TrackOption is a track discovered at runtime by the media layer. ID is the
// opaque reference passed back when selecting it.
type TrackOption struct {
	ID          string `json:"id"`
	LanguageTag string `json:"language,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	IsForced    bool   `json:"isForced,omitempty"`
}

// MatchedTrack pairs a caller track with the discovered option it maps to.
// Option is nil when nothing matched.
type MatchedTrack[T any] struct {
	Track  T            `json:"track"`
	Option *TrackOption `json:"option"`
}

// Language implementations let the matcher work over both track kinds.
func (t AudioTrackInfo) Language() string    { return t.LanguageCode }
func (t SubtitleTrackInfo) Language() string { return t.LanguageCode }

func IntPtr(v int) *int { return &v }
