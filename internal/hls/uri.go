package hls

import (
	"net/url"
	"strings"
)

// ResolveURI makes uri absolute against the master playlist URL. Absolute
// http(s) URIs are returned trimmed, scheme-relative ones get the master's
// scheme. Anything that cannot be resolved comes back unchanged.
func ResolveURI(uri string, master *url.URL) string {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return uri
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "//") {
		scheme := "https"
		if master != nil && master.Scheme != "" {
			scheme = master.Scheme
		}
		return scheme + ":" + trimmed
	}
	if master == nil {
		return uri
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return uri
	}
	return master.ResolveReference(ref).String()
}
