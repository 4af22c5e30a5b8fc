// Package tracks pairs caller-described audio and subtitle tracks with the
// track options discovered in a loaded media item.
package tracks

import (
	"strconv"

	"cineplayer/internal/domain"
	"cineplayer/internal/langtag"
)

// Languaged is any caller track that carries a language code.
type Languaged interface {
	Language() string
}

// Match pairs every track with the option at the same position among
// options of the same normalized language, retrying with the ISO-639
// counterpart of that language. The result has one entry per track, in
// input order.
func Match[T Languaged](tracks []T, options []domain.TrackOption) []domain.MatchedTrack[T] {
	byLang := make(map[string][]int)
	for i, opt := range options {
		lang := langtag.Normalize(opt.LanguageTag)
		byLang[lang] = append(byLang[lang], i)
	}

	counters := make(map[string]int)
	out := make([]domain.MatchedTrack[T], 0, len(tracks))
	for _, track := range tracks {
		lang := langtag.Normalize(track.Language())
		pos := counters[lang]
		counters[lang] = pos + 1

		match := domain.MatchedTrack[T]{Track: track}
		if idx, ok := at(byLang[lang], pos); ok {
			match.Option = optionPtr(options[idx])
		} else if alt, ok := langtag.Alternate(lang); ok {
			if idx, ok := at(byLang[alt], pos); ok {
				match.Option = optionPtr(options[idx])
			}
		}
		out = append(out, match)
	}
	return out
}

func MatchAudio(tracks []domain.AudioTrackInfo, options []domain.TrackOption) []domain.MatchedTrack[domain.AudioTrackInfo] {
	return Match(tracks, options)
}

func MatchSubtitles(tracks []domain.SubtitleTrackInfo, options []domain.TrackOption) []domain.MatchedTrack[domain.SubtitleTrackInfo] {
	return Match(tracks, options)
}

// DefaultAudioIndex is the index of the first track flagged default, 0 when
// none is, and -1 for an empty list.
func DefaultAudioIndex(tracks []domain.AudioTrackInfo) int {
	if len(tracks) == 0 {
		return -1
	}
	for i, t := range tracks {
		if t.IsDefault {
			return i
		}
	}
	return 0
}

// SubtitleTracksFromOptions builds a subtitle list straight from discovered
// options, for media whose metadata lists no subtitle tracks.
func SubtitleTracksFromOptions(options []domain.TrackOption) []domain.SubtitleTrackInfo {
	if len(options) == 0 {
		return nil
	}
	out := make([]domain.SubtitleTrackInfo, len(options))
	for i, opt := range options {
		name := opt.DisplayName
		if name == "" {
			name = langtag.Normalize(opt.LanguageTag)
		}
		out[i] = domain.SubtitleTrackInfo{
			ID:           strconv.Itoa(i),
			LanguageCode: opt.LanguageTag,
			DisplayName:  name,
			IsForced:     opt.IsForced,
		}
	}
	return out
}

// SelectedOption resolves a picker index to the option to select. An index
// covered by matches uses the matched option; past the matches it addresses
// options directly.
func SelectedOption[T any](matches []domain.MatchedTrack[T], options []domain.TrackOption, index int) (domain.TrackOption, bool) {
	if index < 0 {
		return domain.TrackOption{}, false
	}
	if index < len(matches) {
		if opt := matches[index].Option; opt != nil {
			return *opt, true
		}
		return domain.TrackOption{}, false
	}
	if index < len(options) {
		return options[index], true
	}
	return domain.TrackOption{}, false
}

func at(idx []int, pos int) (int, bool) {
	if pos < len(idx) {
		return idx[pos], true
	}
	return 0, false
}

func optionPtr(opt domain.TrackOption) *domain.TrackOption {
	return &opt
}
