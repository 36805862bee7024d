package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var srtTimingRegex = regexp.MustCompile(
	`(\d+):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2}),(\d{3})`,
)

// reads a SubRip document back into segments; cue numbers are ignored and
// multi-line text is joined with newlines
func ParseSRT(r io.Reader) ([]Segment, error) {
	var (
		segments  []Segment
		current   *Segment
		textLines []string
		lineNum   int
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
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			if matches := srtTimingRegex.FindStringSubmatch(line); len(matches) == 9 {
				start, err := clockSeconds(matches[1], matches[2], matches[3], matches[4])
				if err != nil {
					return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
				}
				end, err := clockSeconds(matches[5], matches[6], matches[7], matches[8])
				if err != nil {
					return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
				}
				current = &Segment{Start: start, End: end}
				continue
			}
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				// cue number
				continue
			}
			return nil, fmt.Errorf("unexpected content at line %d: %q", lineNum, line)
		}

		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}

	return segments, nil
}

// converts clock fields to seconds
func clockSeconds(hours, minutes, seconds, millis string) (float64, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	total := int64(h)*millisPerHour + int64(m)*millisPerMinute + int64(s)*millisPerSecond + int64(ms)
	return float64(total) / 1000, nil
}
