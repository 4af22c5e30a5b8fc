// Package manifest fetches master playlists and subtitle files for media
// items, rewrites playlists for playback and keeps the last good copy to
// serve when the upstream is unavailable.
package manifest

// FallbackCache holds the last successfully fetched playlist and its
// rewritten form. The zero value is empty.
type FallbackCache struct {
	Original  []byte `json:"original,omitempty"`
	Rewritten []byte `json:"rewritten,omitempty"`
}

// Remember returns a cache holding the given fetch. Empty arguments keep
// the previous value.
func (c FallbackCache) Remember(original, rewritten []byte) FallbackCache {
	if len(original) > 0 {
		c.Original = original
	}
	if len(rewritten) > 0 {
		c.Rewritten = rewritten
	}
	return c
}

// Fallback returns the rewritten playlist if one is cached, else the
// original.
func (c FallbackCache) Fallback() ([]byte, bool) {
	if len(c.Rewritten) > 0 {
		return c.Rewritten, true
	}
	if len(c.Original) > 0 {
		return c.Original, true
	}
	return nil, false
}
