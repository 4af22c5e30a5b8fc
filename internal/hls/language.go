package hls

import (
	"strings"

	"cineplayer/internal/langtag"
)

// nameLanguageHints guesses a language from a rendition NAME when LANGUAGE
// is absent. Checked in order; first hit wins.
var nameLanguageHints = []struct {
	lang    string
	needles []string
}{
	{"ru", []string{"(rus)", " rus", "russian", "рус"}},
	{"en", []string{"(eng)", " eng", "english", "англ"}},
	{"uk", []string{"(ukr)", " ukr", "ukrain", "укр"}},
}

func guessLanguageFromName(name string) (string, bool) {
	s := strings.ToLower(name)
	for _, hint := range nameLanguageHints {
		for _, needle := range hint.needles {
			if strings.Contains(s, needle) {
				return hint.lang, true
			}
		}
	}
	return "", false
}

// languageKey picks the counter/lookup key for an audio rendition.
func languageKey(languageAttr, name string) string {
	if lang := strings.ToLower(strings.TrimSpace(languageAttr)); lang != "" {
		return lang
	}
	if guessed, ok := guessLanguageFromName(name); ok {
		return guessed
	}
	return langtag.Undetermined
}

// leadingIndex reads a 1-3 digit number at the start of name, terminated by
// '.', ')', ':' or the end of the name. Values above 255 are rejected.
func leadingIndex(name string) (int, bool) {
	trimmed := strings.TrimSpace(name)
	value, digits := 0, 0
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c >= '0' && c <= '9' {
			digits++
			if digits > 3 {
				return 0, false
			}
			value = value*10 + int(c-'0')
			continue
		}
		if c == '.' || c == ')' || c == ':' {
			break
		}
		return 0, false
	}
	if digits == 0 || value > 255 {
		return 0, false
	}
	return value, true
}
