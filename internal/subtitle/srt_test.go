package subtitle

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestFormatSRT(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{
			name:     "nil input",
			segments: nil,
			want:     "",
		},
		{
			name:     "empty input",
			segments: []Segment{},
			want:     "",
		},
		{
			name:     "single segment trims text",
			segments: []Segment{{Start: 0, End: 1.5, Text: " Hello world "}},
			want:     "1\n00:00:00,000 --> 00:00:01,500\nHello world\n",
		},
		{
			name: "two segments joined by blank line",
			segments: []Segment{
				{Start: 0, End: 2, Text: "first"},
				{Start: 2, End: 4.25, Text: "second"},
			},
			want: "1\n00:00:00,000 --> 00:00:02,000\nfirst\n" +
				"\n" +
				"2\n00:00:02,000 --> 00:00:04,250\nsecond\n",
		},
		{
			name:     "hour overflow is carried",
			segments: []Segment{{Start: 3661.2, End: 3662.0, Text: "a"}},
			want:     "1\n01:01:01,200 --> 01:01:02,000\na\n",
		},
		{
			name:     "delimiter in text is rewritten",
			segments: []Segment{{Start: 1, End: 2, Text: "turn left --> then right"}},
			want:     "1\n00:00:01,000 --> 00:00:02,000\nturn left -> then right\n",
		},
		{
			name:     "zero duration and empty text",
			segments: []Segment{{Start: 5, End: 5, Text: "   "}},
			want:     "1\n00:00:05,000 --> 00:00:05,000\n\n",
		},
		{
			name:     "end before start passes through",
			segments: []Segment{{Start: 10, End: 3, Text: "odd"}},
			want:     "1\n00:00:10,000 --> 00:00:03,000\nodd\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatSRT(tt.segments)
			if err != nil {
				t.Fatalf("FormatSRT() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatSRT() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormatSRTNegativeTimestamp(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "ok"},
		{Start: 1, End: -2, Text: "broken"},
	}

	got, err := FormatSRT(segments)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("FormatSRT() error = %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), "segment 2 end") {
		t.Errorf("error %q does not name the failing segment", err)
	}
	if got != "" {
		t.Errorf("FormatSRT() = %q, want empty output on error", got)
	}
}

func TestFormatSRTBlocks(t *testing.T) {
	segments := make([]Segment, 25)
	for i := range segments {
		segments[i] = Segment{
			Start: float64(i) * 1.1,
			End:   float64(i)*1.1 + 1,
			Text:  fmt.Sprintf("\t line %d --> more -->--> ", i),
		}
	}

	got, err := FormatSRT(segments)
	if err != nil {
		t.Fatalf("FormatSRT() error = %v", err)
	}

	blocks := strings.Split(strings.TrimSuffix(got, "\n"), "\n\n")
	if len(blocks) != len(segments) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(segments))
	}

	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) != 3 {
			t.Fatalf("block %d has %d lines, want 3: %q", i+1, len(lines), block)
		}
		if lines[0] != fmt.Sprint(i+1) {
			t.Errorf("block %d index line = %q", i+1, lines[0])
		}
		if strings.Count(lines[1], "-->") != 1 {
			t.Errorf("block %d timing line = %q", i+1, lines[1])
		}
		text := lines[2]
		if strings.Contains(text, "-->") {
			t.Errorf("block %d text still contains delimiter: %q", i+1, text)
		}
		if text != strings.TrimSpace(text) {
			t.Errorf("block %d text has surrounding whitespace: %q", i+1, text)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"  padded\n", "padded"},
		{"a --> b", "a -> b"},
		{"-->", "->"},
		{"--->", "->"},
		{"---->", "->"},
		{"a -->--> b", "a ->-> b"},
		{"<-- left arrow stays", "<-- left arrow stays"},
		{"-> single arrow stays", "-> single arrow stays"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeText(tt.input); got != tt.want {
				t.Errorf("sanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSRTIsIdempotent(t *testing.T) {
	segments := []Segment{
		{Start: 0.5, End: 2.25, Text: "one"},
		{Start: 2.25, End: 4000.125, Text: " two --> three "},
	}

	first, err := FormatSRT(segments)
	if err != nil {
		t.Fatalf("FormatSRT() error = %v", err)
	}

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = FormatSRT(segments)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != first {
			t.Errorf("call %d = %q, want %q", i, got, first)
		}
	}
	if segments[1].Text != " two --> three " {
		t.Errorf("input segment was mutated: %q", segments[1].Text)
	}
}
