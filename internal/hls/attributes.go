package hls

import (
	"sort"
	"strings"
)

// Attributes maps attribute names to raw values. Quoted values keep their
// surrounding quotes until Unquote is applied.
type Attributes map[string]string

var (
	MediaKeyOrder = []string{
		"TYPE", "GROUP-ID", "NAME", "LANGUAGE", "DEFAULT", "AUTOSELECT",
		"FORCED", "CHARACTERISTICS", "CHANNELS", "URI",
	}
	StreamInfKeyOrder = []string{
		"BANDWIDTH", "AVERAGE-BANDWIDTH", "RESOLUTION", "FRAME-RATE", "CODECS",
		"VIDEO-RANGE", "HDCP-LEVEL", "AUDIO", "SUBTITLES", "CLOSED-CAPTIONS", "VIDEO",
	}
)

// ParseAttributes parses a KEY=VALUE attribute list. A pair without '=' stops
// the scan and whatever was collected so far is returned.
func ParseAttributes(text string) Attributes {
	attrs := make(Attributes)
	i, n := 0, len(text)

	for i < n {
		for i < n && (text[i] == ',' || text[i] == ' ') {
			i++
		}
		if i >= n {
			break
		}

		eq := strings.IndexAny(text[i:], "=,")
		if eq < 0 || text[i+eq] != '=' {
			break
		}
		key := strings.TrimSpace(text[i : i+eq])
		i += eq + 1

		if i < n && text[i] == '"' {
			start := i
			i++
			escaped := false
			for i < n {
				c := text[i]
				i++
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == '"' {
					break
				}
			}
			attrs[key] = text[start:i]
		} else {
			end := strings.IndexByte(text[i:], ',')
			if end < 0 {
				end = n - i
			}
			attrs[key] = strings.TrimSpace(text[i : i+end])
			i += end
		}

		if i < n && text[i] == ',' {
			i++
		}
	}
	return attrs
}

// SerializeAttributes joins attrs as KEY=VALUE pairs. Keys listed in order
// come first in that order; the rest follow sorted. An empty value is
// written as KEY=.
func SerializeAttributes(attrs Attributes, order []string) string {
	rank := make(map[string]int, len(order))
	for i, key := range order {
		if _, seen := rank[key]; !seen {
			rank[key] = i
		}
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		ra, okA := rank[keys[a]]
		rb, okB := rank[keys[b]]
		switch {
		case okA && okB:
			return ra < rb
		case okA != okB:
			return okA
		default:
			return keys[a] < keys[b]
		}
	})

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(attrs[key])
	}
	return b.String()
}

// Unquote strips one pair of surrounding quotes and reverses \" and \\.
func Unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	value = strings.ReplaceAll(value, `\"`, `"`)
	return strings.ReplaceAll(value, `\\`, `\`)
}

// Quote escapes value and wraps it in quotes. Line breaks become spaces so
// the tag stays on one line.
func Quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return `"` + value + `"`
}

// Get returns the unquoted value of key.
func (a Attributes) Get(key string) (string, bool) {
	raw, ok := a[key]
	if !ok {
		return "", false
	}
	return Unquote(raw), true
}

func (a Attributes) SetQuoted(key, value string) {
	a[key] = Quote(value)
}
