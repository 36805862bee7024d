package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	vttTimingRegex = regexp.MustCompile(
		`^(\d+):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimingRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// reads a WebVTT document back into segments, skipping NOTE and STYLE blocks
func ParseVTT(r io.Reader) ([]Segment, error) {
	var (
		segments  []Segment
		current   *Segment
		textLines []string
		lineNum   int
		skipBlock bool
	)

	flush := func() {
		if current != nil {
			current.Text = strings.Join(textLines, "\n")
			segments = append(segments, *current)
		}
		current = nil
		textLines = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "WEBVTT") {
				return nil, fmt.Errorf("missing WEBVTT header")
			}
			skipBlock = true
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}

		if current == nil {
			if strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION") {
				skipBlock = true
				continue
			}

			seg, ok, err := parseVTTTiming(trimmed)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp at line %d: %w", lineNum, err)
			}
			if ok {
				current = seg
			}
			// anything else before a timing line is a cue identifier
			continue
		}

		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}

	return segments, nil
}

func parseVTTTiming(line string) (*Segment, bool, error) {
	var start, end float64
	var err error

	if m := vttTimingRegex.FindStringSubmatch(line); len(m) == 9 {
		if start, err = clockSeconds(m[1], m[2], m[3], m[4]); err != nil {
			return nil, false, err
		}
		if end, err = clockSeconds(m[5], m[6], m[7], m[8]); err != nil {
			return nil, false, err
		}
		return &Segment{Start: start, End: end}, true, nil
	}

	if m := vttShortTimingRegex.FindStringSubmatch(line); len(m) == 7 {
		if start, err = clockSeconds("0", m[1], m[2], m[3]); err != nil {
			return nil, false, err
		}
		if end, err = clockSeconds("0", m[4], m[5], m[6]); err != nil {
			return nil, false, err
		}
		return &Segment{Start: start, End: end}, true, nil
	}

	return nil, false, nil
}
