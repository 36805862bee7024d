package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

const defaultOpenAIModel = "whisper-1"

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
	probe   func(ctx context.Context, path string) (time.Duration, error)
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		options: opts,
		probe:   audio.Duration,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	duration, _ := t.probe(ctx, audioPath)

	if t.shouldUseTranslation() {
		return t.transcribeWithTranslation(ctx, file, duration)
	}
	return t.transcribeWithTimestamps(ctx, file, duration)
}

// Whisper's translate task only targets English
func (t *OpenAITranscriber) shouldUseTranslation() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

func (t *OpenAITranscriber) transcribeWithTranslation(
	ctx context.Context,
	file *os.File,
	duration time.Duration,
) (*Result, error) {
	params := openai.AudioTranslationNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Translations.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	result := t.resultFromRaw(resp.RawJSON(), resp.Text, duration)
	result.Language = "en"
	return result, nil
}

func (t *OpenAITranscriber) transcribeWithTimestamps(
	ctx context.Context,
	file *os.File,
	duration time.Duration,
) (*Result, error) {
	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return t.resultFromRaw(resp.RawJSON(), resp.Text, duration), nil
}

// builds a Result from verbose_json, falling back to one segment spanning
// the whole file when the body carries no usable segments
func (t *OpenAITranscriber) resultFromRaw(rawJSON, text string, duration time.Duration) *Result {
	result := &Result{
		Text:     strings.TrimSpace(text),
		Language: t.options.Language,
		Duration: duration,
	}

	var verbose whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verbose); err == nil {
		if result.Language == "" {
			result.Language = verbose.Language
		}
		if result.Duration == 0 && verbose.Duration > 0 {
			result.Duration = time.Duration(verbose.Duration * float64(time.Second))
		}
	}

	segments, err := t.parseVerboseJSONResponse(rawJSON, duration)
	if err != nil {
		if result.Text == "" {
			return result
		}
		segments = []subtitle.Segment{{Start: 0, End: result.Duration.Seconds(), Text: result.Text}}
	}
	result.Segments = segments
	return result
}

func (t *OpenAITranscriber) parseVerboseJSONResponse(
	rawJSON string,
	fallbackDuration time.Duration,
) ([]subtitle.Segment, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	segments := make([]subtitle.Segment, len(verboseResp.Segments))
	for i, seg := range verboseResp.Segments {
		segments[i] = subtitle.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	if segments = cleanSegments(segments); len(segments) > 0 {
		return segments, nil
	}

	// no usable segments: one segment spanning the whole file
	text := strings.TrimSpace(verboseResp.Text)
	if text == "" {
		return nil, ErrEmptyTranscript
	}
	end := fallbackDuration.Seconds()
	if verboseResp.Duration > 0 {
		end = verboseResp.Duration
	}
	return []subtitle.Segment{{Start: 0, End: end, Text: text}}, nil
}

// transcribes multiple chunks in parallel
func (t *OpenAITranscriber) TranscribeWithChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	return transcribeChunks(ctx, t, chunks, concurrency, t.options.Language)
}
