package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

const (
	defaultHuggingFaceModel = "openai/whisper-large-v3"
	huggingFaceInferenceURL = "https://api-inference.huggingface.co/models/"
)

// implements Transcriber against a hosted transformers ASR pipeline
type HuggingFaceTranscriber struct {
	client   *http.Client
	endpoint string
	token    string
	options  Options
	probe    func(ctx context.Context, path string) (time.Duration, error)
}

type pipelineRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters pipelineParameters `json:"parameters"`
}

type pipelineParameters struct {
	ReturnTimestamps bool              `json:"return_timestamps"`
	GenerateKwargs   map[string]string `json:"generate_kwargs,omitempty"`
}

type pipelineResponse struct {
	Text   string                   `json:"text"`
	Chunks []subtitle.PipelineChunk `json:"chunks"`
}

func NewHuggingFaceTranscriber(token string, opts Options) (*HuggingFaceTranscriber, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("huggingface: %w", ErrMissingAPIKey)
	}

	endpoint := opts.BaseURL
	if endpoint == "" {
		model := opts.Model
		if model == "" {
			model = defaultHuggingFaceModel
		}
		endpoint = huggingFaceInferenceURL + model
	}

	return &HuggingFaceTranscriber{
		client:   &http.Client{Timeout: 10 * time.Minute},
		endpoint: endpoint,
		token:    token,
		options:  opts,
		probe:    audio.Duration,
	}, nil
}

func (t *HuggingFaceTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	body, err := json.Marshal(pipelineRequest{
		Inputs: base64.StdEncoding.EncodeToString(data),
		Parameters: pipelineParameters{
			ReturnTimestamps: true,
			GenerateKwargs:   t.generateKwargs(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription failed: HTTP %d: %s",
			resp.StatusCode, truncateString(strings.TrimSpace(string(payload)), 200))
	}

	result, err := parsePipelineResponse(payload)
	if err != nil {
		return nil, err
	}

	result.Language = t.options.Language
	if result.Language == "" && t.translateToEnglish() {
		result.Language = "en"
	}
	result.Duration, _ = t.probe(ctx, audioPath)
	if result.Duration == 0 && len(result.Segments) > 0 {
		last := result.Segments[len(result.Segments)-1].End
		result.Duration = time.Duration(last * float64(time.Second))
	}
	return result, nil
}

func (t *HuggingFaceTranscriber) translateToEnglish() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

func (t *HuggingFaceTranscriber) generateKwargs() map[string]string {
	kwargs := map[string]string{}
	if t.options.Language != "" {
		kwargs["language"] = t.options.Language
	}
	if t.translateToEnglish() {
		kwargs["task"] = "translate"
	}
	if len(kwargs) == 0 {
		return nil
	}
	return kwargs
}

// turns a pipeline body into a Result; without chunks the whole text
// becomes a single zero-length segment
func parsePipelineResponse(payload []byte) (*Result, error) {
	var pr pipelineResponse
	if err := json.Unmarshal(payload, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline response: %w", err)
	}

	text := strings.TrimSpace(pr.Text)
	segments := cleanSegments(subtitle.ChunksToSegments(pr.Chunks))
	if len(segments) == 0 {
		if text == "" {
			return nil, ErrEmptyTranscript
		}
		segments = []subtitle.Segment{{Text: text}}
	}

	return &Result{Text: text, Segments: segments}, nil
}

func (t *HuggingFaceTranscriber) TranscribeWithChunks(ctx context.Context, chunks []audio.ChunkInfo, concurrency int) (*Result, error) {
	return transcribeChunks(ctx, t, chunks, concurrency, t.options.Language)
}
