package format

import (
	"math"
	"strconv"
	"strings"
)

// Duration renders a remaining time in seconds as a compact label,
// rounding up to the next whole second ("1h 1m 1s", "45s", "2m").
func Duration(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return Seconds(0)
	}
	if seconds >= math.MaxInt32 {
		return Seconds(math.MaxInt32)
	}
	return Seconds(int(math.Ceil(seconds)))
}

// Seconds renders whole seconds as hours, minutes and seconds. Zero-valued
// units are skipped, except that seconds are always shown when nothing else is.
func Seconds(total int) string {
	if total <= 0 {
		return "0s"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.Itoa(minutes)+"m")
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, strconv.Itoa(seconds)+"s")
	}
	return strings.Join(parts, " ")
}
