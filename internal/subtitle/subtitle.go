package subtitle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports input the formatter cannot render, such as a
	// negative time offset.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrUnsupportedFormat = errors.New("unsupported format")
)

// represents transcribed audio segment, times in seconds from start of audio
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// represents supported output formats
type Format string

const (
	SRT  Format = "srt"
	VTT  Format = "vtt"
	Text Format = "txt"
	JSON Format = "json"
)

// maps a user supplied name or extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "srt":
		return SRT, nil
	case "vtt", "webvtt":
		return VTT, nil
	case "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w %q: use srt, vtt, txt, or json", ErrUnsupportedFormat, s)
	}
}

// file extension for a format
func ExtensionFor(format Format) string {
	switch format {
	case VTT:
		return ".vtt"
	case Text:
		return ".txt"
	case JSON:
		return ".json"
	default:
		return ".srt"
	}
}

// MIME type used when offering a rendered document for download
func ContentTypeFor(format Format) string {
	switch format {
	case SRT:
		return "application/x-subrip"
	case VTT:
		return "text/vtt; charset=utf-8"
	case JSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
