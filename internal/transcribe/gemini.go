package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

const defaultGeminiModel = "gemini-2.5-flash"

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
	probe   func(ctx context.Context, path string) (time.Duration, error)
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
		probe:   audio.Duration,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseTranscriptionResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	duration, _ := t.probe(ctx, audioPath)

	return &Result{
		Text:     subtitle.FormatText(segments),
		Segments: segments,
		Language: t.options.Language,
		Duration: duration,
	}, nil
}

// transcribes multiple chunks in parallel
func (t *GeminiTranscriber) TranscribeWithChunks(ctx context.Context, chunks []audio.ChunkInfo, concurrency int) (*Result, error) {
	return transcribeChunks(ctx, t, chunks, concurrency, t.options.Language)
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if t.options.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", t.options.Language)
	}
	if t.options.TranscriptLanguage != "" && t.options.TranscriptLanguage != "native" {
		fmt.Fprintf(&sb, "Output the transcript in %s. ", t.options.TranscriptLanguage)
	}
	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

// parses Gemini's response into segments
func parseTranscriptionResponse(resp *genai.GenerateContentResponse) ([]subtitle.Segment, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("no text in Gemini response")
	}

	found, err := extractTranscriptSegments(cleanJSONResponse(sb.String()))
	if err != nil {
		return nil, err
	}

	segments := make([]subtitle.Segment, len(found))
	for i, ts := range found {
		segments[i] = subtitle.Segment{Start: ts.Start, End: ts.End, Text: ts.Text}
	}
	return cleanSegments(segments), nil
}

var codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = codeFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

const maxWrapperDepth = 4

// finds the first JSON value in s that holds a usable segment list. Models
// wrap the array in prose or in an object, so every '[' and '{' is tried.
func extractTranscriptSegments(s string) ([]transcriptSegment, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			continue
		}
		if segments, ok := segmentsFromValue(raw, 0); ok {
			return segments, nil
		}
		if s[i] == '[' {
			// a complete array that is not a transcript; skip past it
			i += len(raw) - 1
		}
	}
	return nil, fmt.Errorf("no transcript segments found in response: %s", truncateString(s, 200))
}

func segmentsFromValue(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	if depth > maxWrapperDepth || len(raw) == 0 {
		return nil, false
	}

	switch raw[0] {
	case '[':
		var segments []transcriptSegment
		if err := json.Unmarshal(raw, &segments); err != nil || !validateSegments(segments) {
			return nil, false
		}
		return segments, true
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		for _, key := range wrapperKeys(obj) {
			if segments, ok := segmentsFromValue(obj[key], depth+1); ok {
				return segments, true
			}
		}
	}
	return nil, false
}

// well known wrapper keys first, then the rest in a stable order
func wrapperKeys(obj map[string]json.RawMessage) []string {
	preferred := []string{"segments", "transcript", "transcription", "data", "result", "response"}
	keys := make([]string, 0, len(obj))
	seen := make(map[string]bool, len(preferred))
	for _, k := range preferred {
		if _, ok := obj[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range obj {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// at least one segment must carry text or a timestamp
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
