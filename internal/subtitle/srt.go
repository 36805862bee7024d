package subtitle

import (
	"fmt"
	"strings"
)

const (
	srtDecimalMarker = ","
	cueDelimiter     = "-->"
	cueDelimiterSub  = "->"
)

// FormatSRT serializes segments as a SubRip document.
//
// Each segment becomes a block numbered from 1 in input order:
//
//	1
//	00:00:00,000 --> 00:00:01,500
//	Hello world
//
// Blocks are separated by a single blank line. Hours are always written so
// every timing line has the fixed HH:MM:SS,mmm shape players expect. Segment
// text is trimmed and any "-->" in it is rewritten to "->"; the substitution
// is lossy and keeps the text from being read as a timing line.
//
// Ordering and end >= start are not checked. A negative time fails with
// ErrInvalidArgument. An empty input yields an empty document.
func FormatSRT(segments []Segment) (string, error) {
	blocks := make([]string, 0, len(segments))
	for i, seg := range segments {
		timing, err := timingLine(i+1, seg, true, srtDecimalMarker)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, fmt.Sprintf("%d\n%s\n%s\n", i+1, timing, sanitizeText(seg.Text)))
	}
	return strings.Join(blocks, "\n"), nil
}

func timingLine(index int, seg Segment, alwaysIncludeHours bool, marker string) (string, error) {
	start, err := FormatTimestamp(seg.Start, alwaysIncludeHours, marker)
	if err != nil {
		return "", fmt.Errorf("segment %d start: %w", index, err)
	}
	end, err := FormatTimestamp(seg.End, alwaysIncludeHours, marker)
	if err != nil {
		return "", fmt.Errorf("segment %d end: %w", index, err)
	}
	return start + " " + cueDelimiter + " " + end, nil
}

// trims text and rewrites the cue delimiter until none is left, so "--->"
// cannot collapse back into "-->"
func sanitizeText(text string) string {
	text = strings.TrimSpace(text)
	for strings.Contains(text, cueDelimiter) {
		text = strings.ReplaceAll(text, cueDelimiter, cueDelimiterSub)
	}
	return text
}
