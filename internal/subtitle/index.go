package subtitle

import "cineplayer/internal/domain"

// Index holds a sorted cue list and the cue active at the last reported
// playback time. It has a single owner: calls must not overlap.
type Index struct {
	cues   []domain.Cue
	active *domain.Cue

	// OnChange, if set, is called with the new active cue (nil when none)
	// whenever UpdateTime changes it.
	OnChange func(cue *domain.Cue)
}

// NewIndex returns an index over cues, which must be sorted by start time.
func NewIndex(cues []domain.Cue) *Index {
	return &Index{cues: cues}
}

// Load replaces the cues with those parsed from content and clears the
// active cue.
func (x *Index) Load(content string) {
	x.SetCues(Parse(content))
}

func (x *Index) SetCues(cues []domain.Cue) {
	x.cues = cues
	x.active = nil
}

func (x *Index) Clear() {
	x.cues = nil
	x.active = nil
}

func (x *Index) Cues() []domain.Cue { return x.cues }

// IsActive reports whether any cues are loaded.
func (x *Index) IsActive() bool { return len(x.cues) > 0 }

// Active returns the cue on screen, if any.
func (x *Index) Active() (domain.Cue, bool) {
	if x.active == nil {
		return domain.Cue{}, false
	}
	return *x.active, true
}

// UpdateTime recomputes the active cue for playback time t and reports
// whether it changed.
func (x *Index) UpdateTime(t float64) bool {
	next := x.find(t)
	if sameCue(x.active, next) {
		return false
	}
	x.active = next
	if x.OnChange != nil {
		x.OnChange(next)
	}
	return true
}

// find returns the last cue starting at or before t if t is before its end.
func (x *Index) find(t float64) *domain.Cue {
	lo, hi, candidate := 0, len(x.cues)-1, -1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		if x.cues[mid].Start <= t {
			candidate = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if candidate < 0 || !x.cues[candidate].Contains(t) {
		return nil
	}
	cue := x.cues[candidate]
	return &cue
}

func sameCue(a, b *domain.Cue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
