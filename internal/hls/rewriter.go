package hls

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"cineplayer/internal/domain"
	"cineplayer/internal/langtag"
)

const allTracksKey = "*"

// RewriteMasterPlaylist rewrites a master playlist so that audio renditions
// carry the caller's display names and every URI is absolute. When variants
// reference several audio groups only the largest one survives and all
// variants are pointed at it.
func RewriteMasterPlaylist(text string, master *url.URL, tracks []domain.AudioTrackInfo) string {
	lines := ParsePlaylist(text)
	r := &rewriter{
		master:   master,
		buckets:  bucketTracks(tracks),
		counters: make(map[string]int),
	}
	r.canonical, r.referenced = canonicalAudioGroup(lines)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch line.Kind {
		case KindBlank:
			out = append(out, line.Raw)
		case KindURI:
			// Variant URIs after #EXT-X-STREAM-INF and media playlist
			// references are resolved the same way.
			out = append(out, ResolveURI(line.Raw, master))
		case KindStreamInf:
			out = append(out, r.streamInf(*line.StreamInf))
		case KindIFrameStreamInf:
			out = append(out, r.iframe(*line.IFrame))
		case KindMedia:
			if rewritten, keep := r.media(*line.Media); keep {
				out = append(out, rewritten)
			}
		default:
			out = append(out, line.Raw)
		}
	}
	return strings.Join(out, "\n")
}

type rewriter struct {
	master     *url.URL
	buckets    map[string][]domain.AudioTrackInfo
	counters   map[string]int
	canonical  string
	referenced map[string]struct{}
}

func (r *rewriter) resolveTagURI(t Tag) {
	if uri, ok := t.URI(); ok {
		t.Attrs.SetQuoted("URI", ResolveURI(uri, r.master))
	}
}

func (r *rewriter) streamInf(s StreamInf) string {
	if r.canonical != "" {
		if audio, ok := s.Audio(); ok && audio != r.canonical {
			s.Attrs.SetQuoted("AUDIO", r.canonical)
		}
	}
	return s.serialize(StreamInfKeyOrder)
}

func (r *rewriter) iframe(f IFrameStreamInf) string {
	r.resolveTagURI(f.Tag)
	return f.serialize(MediaKeyOrder)
}

// media rewrites one #EXT-X-MEDIA line. keep is false when the line belongs
// to a variant-referenced audio group that lost the canonical selection.
func (r *rewriter) media(m Media) (string, bool) {
	r.resolveTagURI(m.Tag)
	if !m.IsAudio() {
		return m.serialize(MediaKeyOrder), true
	}

	group := m.GroupKey()
	if r.canonical != "" && group != r.canonical {
		if _, ok := r.referenced[group]; ok {
			return "", false
		}
	}

	name := m.Name()
	lang := languageKey(m.Language(), name)
	counterKey := group + "|" + lang
	position := r.counters[counterKey]
	r.counters[counterKey] = position + 1

	var matched domain.AudioTrackInfo
	ok := false
	if alreadyRewritten(m, name) {
		matched, ok = r.byDisplayName(name)
	}
	if !ok {
		matched, ok = r.byLeadingIndex(name)
	}
	if !ok {
		matched, ok = r.byLanguage(lang, position)
	}
	if ok {
		m.Attrs.SetQuoted("NAME", matched.DisplayName)
		delete(m.Attrs, "LANGUAGE")
		delete(m.Attrs, "ASSOC-LANGUAGE")
	}
	return m.serialize(MediaKeyOrder), true
}

// alreadyRewritten reports whether m looks like output of an earlier
// rewrite: a match always strips LANGUAGE, and a NAME with a leading index
// goes through index matching instead.
func alreadyRewritten(m Media, name string) bool {
	if _, ok := m.Attrs["LANGUAGE"]; ok {
		return false
	}
	_, indexed := leadingIndex(name)
	return !indexed
}

// byDisplayName keeps an already rewritten rendition bound to its track so
// that rewriting twice yields the same names.
func (r *rewriter) byDisplayName(name string) (domain.AudioTrackInfo, bool) {
	if name == "" {
		return domain.AudioTrackInfo{}, false
	}
	for _, track := range r.buckets[allTracksKey] {
		if track.DisplayName == name {
			return track, true
		}
	}
	return domain.AudioTrackInfo{}, false
}

// byLeadingIndex matches "2. Commentary" against track index 2, then 1, to
// accept both zero- and one-based numbering.
func (r *rewriter) byLeadingIndex(name string) (domain.AudioTrackInfo, bool) {
	explicit, ok := leadingIndex(name)
	if !ok {
		return domain.AudioTrackInfo{}, false
	}
	for _, idx := range []int{explicit, explicit - 1} {
		if idx < 0 {
			continue
		}
		for _, track := range r.buckets[allTracksKey] {
			if track.Index != nil && *track.Index == idx {
				return track, true
			}
		}
	}
	return domain.AudioTrackInfo{}, false
}

func (r *rewriter) byLanguage(lang string, position int) (domain.AudioTrackInfo, bool) {
	candidates := []string{lang, langtag.Primary(lang)}
	if lang == langtag.Undetermined {
		candidates = append(candidates, allTracksKey)
	}
	for _, key := range candidates {
		if list := r.buckets[key]; position < len(list) {
			return list[position], true
		}
	}
	return domain.AudioTrackInfo{}, false
}

// bucketTracks groups tracks by language key (and its ISO-639 alternate),
// ordered by Index with unindexed tracks last, input order breaking ties.
// The "*" bucket holds every track in that order.
func bucketTracks(tracks []domain.AudioTrackInfo) map[string][]domain.AudioTrackInfo {
	sorted := make([]domain.AudioTrackInfo, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(a, b int) bool {
		return trackOrder(sorted[a]) < trackOrder(sorted[b])
	})

	buckets := make(map[string][]domain.AudioTrackInfo)
	for _, track := range sorted {
		for _, key := range langtag.Keys(track.LanguageCode) {
			buckets[key] = append(buckets[key], track)
		}
	}
	buckets[allTracksKey] = sorted
	return buckets
}

func trackOrder(t domain.AudioTrackInfo) int {
	if t.Index == nil {
		return math.MaxInt
	}
	return *t.Index
}

// canonicalAudioGroup returns the audio group every variant should use and
// the set of groups referenced by variants. The canonical group is empty when
// no variant references audio.
func canonicalAudioGroup(lines []Line) (string, map[string]struct{}) {
	var ordered []string
	referenced := make(map[string]struct{})
	counts := make(map[string]int)

	for _, line := range lines {
		switch line.Kind {
		case KindStreamInf:
			if audio, ok := line.StreamInf.Audio(); ok {
				group := normalizeGroupKey(audio)
				ordered = append(ordered, group)
				referenced[group] = struct{}{}
			}
		case KindMedia:
			if line.Media.IsAudio() {
				counts[line.Media.GroupKey()]++
			}
		}
	}
	if len(ordered) == 0 {
		return "", referenced
	}

	best, bestCount := ordered[0], counts[ordered[0]]
	for _, group := range ordered[1:] {
		if counts[group] > bestCount {
			best, bestCount = group, counts[group]
		}
	}
	return best, referenced
}
