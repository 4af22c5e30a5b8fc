package hls

import (
	"strconv"
	"strings"
)

const (
	tagStreamInf       = "#EXT-X-STREAM-INF"
	tagIFrameStreamInf = "#EXT-X-I-FRAME-STREAM-INF"
	tagMedia           = "#EXT-X-MEDIA"
)

type Kind int

const (
	KindBlank Kind = iota
	KindURI
	KindComment
	KindStreamInf
	KindIFrameStreamInf
	KindMedia
)

// Tag is an attribute-carrying playlist tag such as #EXT-X-MEDIA. A tag
// written without ':' has no attribute list and is emitted as written.
type Tag struct {
	Name    string
	Attrs   Attributes
	raw     string
	hasList bool
}

func parseTag(line string) Tag {
	name, list, ok := strings.Cut(line, ":")
	if !ok {
		return Tag{Name: line, Attrs: Attributes{}, raw: line}
	}
	return Tag{Name: name, Attrs: ParseAttributes(list), raw: line, hasList: true}
}

func (t Tag) serialize(order []string) string {
	if !t.hasList {
		return t.raw
	}
	return t.Name + ":" + SerializeAttributes(t.Attrs, order)
}

// URI returns the unquoted URI attribute, if present and non-empty.
func (t Tag) URI() (string, bool) {
	uri, ok := t.Attrs.Get("URI")
	if !ok || uri == "" {
		return "", false
	}
	return uri, true
}

type StreamInf struct{ Tag }

// Audio returns the unquoted AUDIO group reference.
func (s StreamInf) Audio() (string, bool) { return s.Attrs.Get("AUDIO") }

func (s StreamInf) Bandwidth() int64 {
	v, _ := s.Attrs.Get("BANDWIDTH")
	n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n
}

func (s StreamInf) AverageBandwidth() int64 {
	v, _ := s.Attrs.Get("AVERAGE-BANDWIDTH")
	n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n
}

func (s StreamInf) Resolution() string {
	v, _ := s.Attrs.Get("RESOLUTION")
	return v
}

func (s StreamInf) Codecs() string {
	v, _ := s.Attrs.Get("CODECS")
	return v
}

func (s StreamInf) FrameRate() float64 {
	v, _ := s.Attrs.Get("FRAME-RATE")
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

type IFrameStreamInf struct{ Tag }

type Media struct{ Tag }

// Type returns the upper-cased TYPE attribute.
func (m Media) Type() string {
	v, _ := m.Attrs.Get("TYPE")
	return strings.ToUpper(v)
}

func (m Media) IsAudio() bool { return m.Type() == "AUDIO" }

// GroupKey returns the trimmed GROUP-ID, "_" when missing or blank.
func (m Media) GroupKey() string {
	v, ok := m.Attrs.Get("GROUP-ID")
	if !ok {
		v = "_"
	}
	return normalizeGroupKey(v)
}

func (m Media) Name() string {
	v, _ := m.Attrs.Get("NAME")
	return v
}

func (m Media) Language() string {
	v, _ := m.Attrs.Get("LANGUAGE")
	return v
}

// Line is one physical playlist line, classified once. Exactly one of
// StreamInf, IFrame and Media is set for the matching Kind.
type Line struct {
	Raw       string
	Kind      Kind
	StreamInf *StreamInf
	IFrame    *IFrameStreamInf
	Media     *Media
}

// ParsePlaylist splits text into lines and classifies each one. Line
// boundaries are '\n'; a trailing '\r' is dropped.
func ParsePlaylist(text string) []Line {
	rawLines := strings.Split(text, "\n")
	lines := make([]Line, 0, len(rawLines))
	for _, raw := range rawLines {
		lines = append(lines, classifyLine(strings.TrimSuffix(raw, "\r")))
	}
	return lines
}

func classifyLine(raw string) Line {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Line{Raw: raw, Kind: KindBlank}
	}
	if !strings.HasPrefix(line, "#") {
		return Line{Raw: raw, Kind: KindURI}
	}

	name, _, _ := strings.Cut(line, ":")
	switch name {
	case tagStreamInf:
		return Line{Raw: raw, Kind: KindStreamInf, StreamInf: &StreamInf{parseTag(line)}}
	case tagIFrameStreamInf:
		return Line{Raw: raw, Kind: KindIFrameStreamInf, IFrame: &IFrameStreamInf{parseTag(line)}}
	case tagMedia:
		return Line{Raw: raw, Kind: KindMedia, Media: &Media{parseTag(line)}}
	}
	return Line{Raw: raw, Kind: KindComment}
}

func normalizeGroupKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "_"
	}
	return trimmed
}
