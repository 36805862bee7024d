package subtitle

import (
	"fmt"
	"strings"
)

const vttHeader = "WEBVTT\n"

// serializes segments as WebVTT; hours are only written past the first hour
func FormatVTT(segments []Segment) (string, error) {
	var sb strings.Builder
	sb.WriteString(vttHeader)

	for i, seg := range segments {
		timing, err := timingLine(i+1, seg, false, DefaultDecimalMarker)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("\n%d\n%s\n%s\n", i+1, timing, sanitizeText(seg.Text)))
	}

	return sb.String(), nil
}
