package domain

// Cue is a timed subtitle entry. Start < End and Text is non-empty for every
// cue produced by the parser.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Contains reports whether t falls inside [Start, End).
func (c Cue) Contains(t float64) bool {
	return c.Start <= t && t < c.End
}
