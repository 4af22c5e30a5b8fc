package domain

import "fmt"

// FormatBitrate renders bits per second for display.
func FormatBitrate(bps float64) string {
	switch {
	case bps <= 0:
		return "N/A"
	case bps >= 1_000_000:
		return fmt.Sprintf("%.1f Mbps", bps/1_000_000)
	case bps >= 1_000:
		return fmt.Sprintf("%.1f kbps", bps/1_000)
	default:
		return fmt.Sprintf("%.0f bps", bps)
	}
}
