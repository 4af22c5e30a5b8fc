// Package langtag normalizes the language codes attached to audio and
// subtitle tracks so that caller metadata and discovered tracks can be
// compared.
package langtag

import "strings"

const Undetermined = "und"

// iso639 pairs two-letter and three-letter codes in both directions.
var iso639 = map[string]string{
	"rus": "ru", "ru": "rus",
	"eng": "en", "en": "eng",
	"ukr": "uk", "uk": "ukr",
	"deu": "de", "de": "deu",
	"fra": "fr", "fr": "fra",
	"spa": "es", "es": "spa",
	"ita": "it", "it": "ita",
	"jpn": "ja", "ja": "jpn",
	"kor": "ko", "ko": "kor",
	"zho": "zh", "zh": "zho",
	"por": "pt", "pt": "por",
	"pol": "pl", "pl": "pol",
	"tur": "tr", "tr": "tur",
}

// Normalize returns the lowercased first non-empty subtag of code, or "und"
// when there is none.
func Normalize(code string) string {
	for _, part := range strings.Split(strings.TrimSpace(code), "-") {
		if part = strings.TrimSpace(part); part != "" {
			return strings.ToLower(part)
		}
	}
	return Undetermined
}

// Alternate returns the ISO-639 counterpart of code ("rus" -> "ru").
func Alternate(code string) (string, bool) {
	alt, ok := iso639[strings.ToLower(code)]
	return alt, ok
}

// Keys returns the lowercased code followed by its alternate, if any. An
// empty code yields only "und".
func Keys(code string) []string {
	lang := strings.ToLower(strings.TrimSpace(code))
	if lang == "" {
		return []string{Undetermined}
	}
	if alt, ok := iso639[lang]; ok {
		return []string{lang, alt}
	}
	return []string{lang}
}

// Primary returns the part of key before the first hyphen.
func Primary(key string) string {
	primary, _, _ := strings.Cut(key, "-")
	return primary
}
