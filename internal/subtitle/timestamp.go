package subtitle

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultDecimalMarker separates seconds from milliseconds when the caller
// passes an empty marker.
const DefaultDecimalMarker = "."

const (
	millisPerHour   = 3_600_000
	millisPerMinute = 60_000
	millisPerSecond = 1_000
)

// FormatTimestamp renders an offset in seconds as [HH:]MM:SS<marker>mmm.
//
// The offset is first converted to whole milliseconds with round-half-to-even
// (1.0625 s becomes 1062 ms, 1.1875 s becomes 1188 ms) and then split into
// hours, minutes, seconds and milliseconds by integer division, so the fields
// always add back up to the rounded total. The hours field is written only when
// alwaysIncludeHours is set or the offset reaches one hour.
//
// decimalMarker must be a single character; empty selects DefaultDecimalMarker.
// Negative, NaN and infinite offsets, and longer markers, return an error
// wrapping ErrInvalidArgument.
func FormatTimestamp(seconds float64, alwaysIncludeHours bool, decimalMarker string) (string, error) {
	if !(seconds >= 0) || math.IsInf(seconds, 1) {
		return "", fmt.Errorf("%w: non-negative timestamp expected, got %v", ErrInvalidArgument, seconds)
	}
	switch utf8.RuneCountInString(decimalMarker) {
	case 0:
		decimalMarker = DefaultDecimalMarker
	case 1:
	default:
		return "", fmt.Errorf("%w: decimal marker must be one character, got %q", ErrInvalidArgument, decimalMarker)
	}

	rounded := math.RoundToEven(seconds * 1000)
	if rounded >= math.MaxInt64 {
		return "", fmt.Errorf("%w: timestamp %v out of range", ErrInvalidArgument, seconds)
	}
	millis := int64(rounded)

	hours := millis / millisPerHour
	millis -= hours * millisPerHour

	minutes := millis / millisPerMinute
	millis -= minutes * millisPerMinute

	secs := millis / millisPerSecond
	millis -= secs * millisPerSecond

	hoursMarker := ""
	if alwaysIncludeHours || hours > 0 {
		hoursMarker = fmt.Sprintf("%02d:", hours)
	}

	return fmt.Sprintf("%s%02d:%02d%s%03d", hoursMarker, minutes, secs, decimalMarker, millis), nil
}
