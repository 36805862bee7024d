package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMissingAPIKey       = errors.New("API key is required")
	ErrEmptyTranscript     = errors.New("no segments or text in response")
)

// transcription result
type Result struct {
	Text     string
	Segments []subtitle.Segment
	Language string
	Duration time.Duration
}

// full text as reported by the backend, or the joined segment texts
func (r *Result) PlainText() string {
	if text := strings.TrimSpace(r.Text); text != "" {
		return text
	}
	return subtitle.FormatText(r.Segments)
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

type ConcurrentTranscriber interface {
	Transcriber
	TranscribeWithChunks(
		ctx context.Context,
		chunks []audio.ChunkInfo,
		concurrency int,
	) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderGemini      Provider = "gemini"
	ProviderHuggingFace Provider = "huggingface"
	ProviderWhisperCpp  Provider = "whispercpp"
)

// Providers lists every backend Factory can build
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderGemini, ProviderHuggingFace, ProviderWhisperCpp}
}

// RequiresAPIKey reports whether the provider needs a credential
func (p Provider) RequiresAPIKey() bool {
	switch p {
	case ProviderOpenAI, ProviderGemini, ProviderHuggingFace:
		return true
	default:
		return false
	}
}

// transcription options
type Options struct {
	Language           string // Source language of audio
	TranscriptLanguage string // Output language for transcript (default: "native")
	Model              string
	Prompt             string

	BaseURL    string // hosted endpoint override
	BinaryPath string // whisper.cpp CLI
	ModelPath  string // whisper.cpp ggml model
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (ConcurrentTranscriber, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderHuggingFace:
		return NewHuggingFaceTranscriber(apiKey, opts)
	case ProviderWhisperCpp:
		return NewWhisperCppTranscriber(opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// drops empty-text segments and trims the rest
func cleanSegments(segments []subtitle.Segment) []subtitle.Segment {
	out := make([]subtitle.Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}
