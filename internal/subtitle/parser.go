// Package subtitle turns WebVTT and SRT documents into timed cues and tracks
// which cue is on screen for a given playback time.
package subtitle

import (
	"regexp"
	"sort"
	"strings"

	"cineplayer/internal/domain"
)

const arrow = "-->"

var markupPattern = regexp.MustCompile(`<[^>]+>`)

// Parse extracts cues from WebVTT or SRT content. Blocks without a valid
// timing line or without text are skipped. The result is sorted by start
// time; cues starting together keep document order.
func Parse(content string) []domain.Cue {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var cues []domain.Cue
	for _, block := range strings.Split(content, "\n\n") {
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
	}
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})
	return cues
}

func parseBlock(block string) (domain.Cue, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	timing := -1
	for i, line := range lines {
		if strings.Contains(line, arrow) {
			timing = i
			break
		}
	}
	if timing < 0 {
		return domain.Cue{}, false
	}

	fields := strings.Split(lines[timing], arrow)
	if len(fields) != 2 {
		return domain.Cue{}, false
	}
	endFields := strings.Fields(fields[1])
	if len(endFields) == 0 {
		return domain.Cue{}, false
	}
	start, ok := ParseTimestamp(strings.TrimSpace(fields[0]))
	if !ok {
		return domain.Cue{}, false
	}
	end, ok := ParseTimestamp(endFields[0])
	if !ok || end <= start {
		return domain.Cue{}, false
	}

	text := markupPattern.ReplaceAllString(strings.Join(lines[timing+1:], "\n"), "")
	if strings.TrimSpace(text) == "" {
		return domain.Cue{}, false
	}
	return domain.Cue{Start: start, End: end, Text: text}, true
}
