package hls

import "net/url"

// Variant summarises one #EXT-X-STREAM-INF entry and the URI that follows it.
type Variant struct {
	Bandwidth        int64   `json:"bandwidth"`
	AverageBandwidth int64   `json:"averageBandwidth,omitempty"`
	Resolution       string  `json:"resolution,omitempty"`
	FrameRate        float64 `json:"frameRate,omitempty"`
	Codecs           string  `json:"codecs,omitempty"`
	Audio            string  `json:"audio,omitempty"`
	URI              string  `json:"uri"`
}

// Variants lists the variant streams of a master playlist in playlist order.
// A stream-inf tag with no URI line after it is skipped.
func Variants(text string, master *url.URL) []Variant {
	var (
		variants []Variant
		pending  *StreamInf
	)
	for _, line := range ParsePlaylist(text) {
		switch line.Kind {
		case KindStreamInf:
			pending = line.StreamInf
		case KindURI:
			if pending == nil {
				continue
			}
			audio, _ := pending.Audio()
			variants = append(variants, Variant{
				Bandwidth:        pending.Bandwidth(),
				AverageBandwidth: pending.AverageBandwidth(),
				Resolution:       pending.Resolution(),
				FrameRate:        pending.FrameRate(),
				Codecs:           pending.Codecs(),
				Audio:            audio,
				URI:              ResolveURI(line.Raw, master),
			})
			pending = nil
		}
	}
	return variants
}
