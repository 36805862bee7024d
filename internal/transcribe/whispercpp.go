package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

var (
	ErrModelNotFound  = errors.New("whisper model not found")
	ErrBinaryNotFound = errors.New("whisper.cpp binary not found")
)

// runs the whisper.cpp CLI locally and reads its JSON output
type WhisperCppTranscriber struct {
	binary  string
	model   string
	options Options
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// whisper.cpp -oj output; offsets are milliseconds
type whisperCppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func NewWhisperCppTranscriber(opts Options) (*WhisperCppTranscriber, error) {
	model := opts.ModelPath
	if model == "" {
		return nil, fmt.Errorf("%w: set a ggml model path", ErrModelNotFound)
	}
	if _, err := os.Stat(model); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}

	binary := opts.BinaryPath
	if binary == "" {
		binary = findWhisperBinary()
	}
	if binary == "" {
		return nil, ErrBinaryNotFound
	}

	return &WhisperCppTranscriber{
		binary:  binary,
		model:   model,
		options: opts,
		run:     runCommand,
	}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func findWhisperBinary() string {
	names := []string{"whisper-cli", "whisper-cpp", "whisper", "main"}
	for _, name := range names {
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func (t *WhisperCppTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	workDir, err := os.MkdirTemp("", "transcriber-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	outputBase := filepath.Join(workDir, "out")
	if out, err := t.run(ctx, t.binary, t.args(audioPath, outputBase)...); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w: %s", err, truncateString(strings.TrimSpace(string(out)), 200))
	}

	data, err := os.ReadFile(outputBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper.cpp output: %w", err)
	}
	result, err := parseWhisperCppJSON(data)
	if err != nil {
		return nil, err
	}
	if t.options.Language != "" {
		result.Language = t.options.Language
	}
	return result, nil
}

func (t *WhisperCppTranscriber) args(audioPath, outputBase string) []string {
	args := []string{
		"-m", t.model,
		"-f", audioPath,
		"-of", outputBase,
		"-oj",
		"-np",
	}

	lang := t.options.Language
	if lang == "" {
		lang = "auto"
	}
	args = append(args, "-l", lang)

	target := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	if target == "english" || target == "en" {
		args = append(args, "-tr")
	}
	if t.options.Prompt != "" {
		args = append(args, "--prompt", t.options.Prompt)
	}
	return args
}

func parseWhisperCppJSON(data []byte) (*Result, error) {
	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper.cpp output: %w", err)
	}

	segments := make([]subtitle.Segment, len(out.Transcription))
	for i, item := range out.Transcription {
		segments[i] = subtitle.Segment{
			Start: float64(item.Offsets.From) / 1000,
			End:   float64(item.Offsets.To) / 1000,
			Text:  item.Text,
		}
	}
	segments = cleanSegments(segments)

	result := &Result{
		Text:     subtitle.FormatText(segments),
		Segments: segments,
		Language: out.Result.Language,
	}
	if len(segments) > 0 {
		result.Duration = time.Duration(segments[len(segments)-1].End * float64(time.Second))
	}
	return result, nil
}

func (t *WhisperCppTranscriber) TranscribeWithChunks(ctx context.Context, chunks []audio.ChunkInfo, concurrency int) (*Result, error) {
	return transcribeChunks(ctx, t, chunks, concurrency, t.options.Language)
}
