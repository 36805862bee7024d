package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const whisperCppSample = `{
	"systeminfo": "AVX = 1",
	"result": {"language": "de"},
	"transcription": [
		{"timestamps": {"from": "00:00:00,000", "to": "00:00:02,340"}, "offsets": {"from": 0, "to": 2340}, "text": " Guten Tag."},
		{"timestamps": {"from": "00:00:02,340", "to": "00:00:02,500"}, "offsets": {"from": 2340, "to": 2500}, "text": " "},
		{"timestamps": {"from": "00:00:02,500", "to": "00:00:05,000"}, "offsets": {"from": 2500, "to": 5000}, "text": " Wie geht's?"}
	]
}`

func TestParseWhisperCppJSON(t *testing.T) {
	result, err := parseWhisperCppJSON([]byte(whisperCppSample))
	if err != nil {
		t.Fatalf("parseWhisperCppJSON() error = %v", err)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}
	if result.Segments[0].End != 2.34 {
		t.Errorf("segment 0 end = %v, want 2.34", result.Segments[0].End)
	}
	if result.Segments[1].Start != 2.5 || result.Segments[1].Text != "Wie geht's?" {
		t.Errorf("segment 1 = %+v", result.Segments[1])
	}
	if result.Language != "de" {
		t.Errorf("Language = %q", result.Language)
	}
	if result.Text != "Guten Tag. Wie geht's?" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Duration != 5*time.Second {
		t.Errorf("Duration = %v", result.Duration)
	}
}

func TestWhisperCppTranscribe(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := NewWhisperCppTranscriber(Options{
		BinaryPath:         "/usr/local/bin/whisper-cli",
		ModelPath:          model,
		TranscriptLanguage: "English",
	})
	if err != nil {
		t.Fatal(err)
	}

	var gotName string
	var gotArgs []string
	tr.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		base := args[slices.Index(args, "-of")+1]
		return nil, os.WriteFile(base+".json", []byte(whisperCppSample), 0644)
	}

	result, err := tr.Transcribe(context.Background(), writeAudio(t, "RIFF"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if gotName != "/usr/local/bin/whisper-cli" {
		t.Errorf("binary = %q", gotName)
	}
	for _, flag := range []string{"-oj", "-tr", "-m"} {
		if !slices.Contains(gotArgs, flag) {
			t.Errorf("args %v missing %s", gotArgs, flag)
		}
	}
	if i := slices.Index(gotArgs, "-l"); i < 0 || gotArgs[i+1] != "auto" {
		t.Errorf("args %v should request language auto-detection", gotArgs)
	}
	if len(result.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(result.Segments))
	}
}

func TestWhisperCppTranscribeCommandFailure(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := NewWhisperCppTranscriber(Options{BinaryPath: "whisper-cli", ModelPath: model})
	if err != nil {
		t.Fatal(err)
	}
	tr.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("error: failed to open audio"), errors.New("exit status 1")
	}

	if _, err := tr.Transcribe(context.Background(), writeAudio(t, "x")); err == nil {
		t.Fatal("expected error when whisper.cpp exits non-zero")
	}
}

func TestNewWhisperCppTranscriberRequiresModel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no model", Options{BinaryPath: "whisper-cli"}},
		{"missing model file", Options{BinaryPath: "whisper-cli", ModelPath: filepath.Join(t.TempDir(), "nope.bin")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWhisperCppTranscriber(tt.opts); !errors.Is(err, ErrModelNotFound) {
				t.Errorf("error = %v, want ErrModelNotFound", err)
			}
		})
	}
}

func TestNewWhisperCppTranscriberRequiresBinary(t *testing.T) {
	model := filepath.Join(t.TempDir(), "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", t.TempDir())

	if _, err := NewWhisperCppTranscriber(Options{ModelPath: model}); !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("error = %v, want ErrBinaryNotFound", err)
	}
}
