package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
	"github.com/studentsforfg/transcriber/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Transcribe an audio or video file to text and subtitles",
	Long: `Transcribe the specified audio or video file.

The command accepts audio files (mp3, wav, m4a, wma, aac, etc.) and video
files (mp4, mkv, etc.). Media is re-encoded to 16 kHz mono before it is sent
to the backend. Long recordings can be split into chunks that are
transcribed in parallel.

One file is written per requested format next to the input, or under
--output when set.

Examples:
  transcriber transcribe talk.mp3
  transcriber transcribe lecture.mp4 --format srt,vtt -o subs/
  transcriber transcribe podcast.mp3 --provider gemini -d 5 --concurrency 4
  transcriber transcribe interview.wav --provider whispercpp --whisper-model ggml-base.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		StringP("provider", "p", "", "Transcription provider (openai, gemini, huggingface, whispercpp)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set OPENAI_API_KEY/GEMINI_API_KEY/HF_TOKEN)")
	transcribeCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	transcribeCmd.Flags().
		StringSliceP("format", "f", nil, "Output formats (txt, srt, vtt, json); default from config: txt,srt")
	transcribeCmd.Flags().
		IntP("chunk-duration", "d", -1, "Chunk duration in minutes, 0 disables chunking (default from config)")
	transcribeCmd.Flags().
		Int("concurrency", 0, "Number of parallel transcription workers (default from config)")
	transcribeCmd.Flags().
		String("transcript-language", "native", "Output language for transcript ('native' keeps the spoken language)")
	transcribeCmd.Flags().
		String("prompt", "", "Optional prompt to guide the model (names, vocabulary)")
	transcribeCmd.Flags().
		String("whisper-bin", "", "Path to the whisper.cpp CLI (whispercpp provider)")
	transcribeCmd.Flags().
		String("whisper-model", "", "Path to a ggml model file (whispercpp provider)")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := os.Stat(mediaPath); err != nil {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	providerName, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	formatNames, _ := cmd.Flags().GetStringSlice("format")
	chunkMinutes, _ := cmd.Flags().GetInt("chunk-duration")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	transcriptLang, _ := cmd.Flags().GetString("transcript-language")
	prompt, _ := cmd.Flags().GetString("prompt")
	whisperBin, _ := cmd.Flags().GetString("whisper-bin")
	whisperModel, _ := cmd.Flags().GetString("whisper-model")
	outputDir, _ := cmd.Flags().GetString("output")

	if providerName == "" {
		providerName = cfg.Provider
	}
	provider, err := parseProvider(providerName)
	if err != nil {
		return err
	}
	if len(formatNames) == 0 {
		formatNames = cfg.Formats
	}
	formats, err := parseFormats(formatNames)
	if err != nil {
		return err
	}
	if chunkMinutes < 0 {
		chunkMinutes = cfg.Chunking.Minutes
	}
	if concurrency <= 0 {
		concurrency = cfg.Chunking.Concurrency
	}
	if model == "" {
		model = cfg.Model
	}
	if apiKey == "" {
		apiKey = cfg.APIKey(string(provider))
	}
	if err := checkAPIKey(provider, apiKey); err != nil {
		return err
	}
	if provider == transcribe.ProviderOpenAI && !isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf("openai can only translate into English: use --transcript-language native or english")
	}

	opts := transcribe.Options{
		Language:           cfg.Language,
		TranscriptLanguage: transcriptLang,
		Model:              model,
		Prompt:             prompt,
		BaseURL:            cfg.HuggingFace.Endpoint,
		BinaryPath:         firstNonEmpty(whisperBin, cfg.Whisper.Binary),
		ModelPath:          firstNonEmpty(whisperModel, cfg.Whisper.ModelPath),
	}
	if provider != transcribe.ProviderHuggingFace {
		opts.BaseURL = ""
	}

	transcriber, err := transcribe.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	logger.Infow("Starting transcription",
		"input", mediaPath,
		"provider", provider,
		"formats", formatNames,
		"chunk_minutes", chunkMinutes,
		"concurrency", concurrency,
	)

	tempDir, err := os.MkdirTemp("", "transcriber-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	prepareOpts := audio.DefaultPrepareOptions()
	if provider == transcribe.ProviderWhisperCpp {
		// whisper.cpp reads 16-bit PCM wav
		prepareOpts.Format = "wav"
	}
	audioPath := audio.PreparedPath(mediaPath, tempDir, prepareOpts)

	logger.Infow("Preparing audio")
	if err := audio.Prepare(ctx, mediaPath, audioPath, prepareOpts); err != nil {
		return fmt.Errorf("failed to prepare audio: %w", err)
	}

	var result *transcribe.Result
	if chunkMinutes > 0 {
		chunkDur := time.Duration(chunkMinutes) * time.Minute
		logger.Infow("Splitting audio into chunks", "chunk_duration", chunkDur.String())

		chunks, err := audio.Split(ctx, audioPath, chunkDur, filepath.Join(tempDir, "chunks"), 0)
		if err != nil {
			return fmt.Errorf("failed to split audio: %w", err)
		}
		logger.Infow("Created audio chunks", "count", len(chunks))

		result, err = transcriber.TranscribeWithChunks(ctx, chunks, concurrency)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
	} else {
		result, err = transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
	}

	logger.Infow("Transcription complete", "segments", len(result.Segments), "language", result.Language)

	written, err := writeOutputs(subtitle.NewWriter(afero.NewOsFs()), result, formats, mediaPath, outputDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Transcription complete:")
	for _, path := range written {
		abs, _ := filepath.Abs(path)
		fmt.Fprintf(out, "  %s\n", abs)
	}
	fmt.Fprintf(out, "  Segments: %d\n", len(result.Segments))
	if result.Duration > 0 {
		fmt.Fprintf(out, "  Duration: %s\n", result.Duration.Round(time.Second))
	}
	return nil
}

// writes one document per format; txt uses the backend's full text
func writeOutputs(
	w *subtitle.Writer,
	result *transcribe.Result,
	formats []subtitle.Format,
	mediaPath, outputDir string,
) ([]string, error) {
	written := make([]string, 0, len(formats))
	for _, format := range formats {
		path := subtitle.OutputPath(mediaPath, outputDir, format)

		var err error
		if format == subtitle.Text {
			err = w.WriteDocument(result.PlainText()+"\n", path)
		} else {
			err = w.Write(format, result.Segments, path)
		}
		if err != nil {
			return written, fmt.Errorf("failed to write %s output: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

var apiKeyEnv = map[transcribe.Provider]string{
	transcribe.ProviderOpenAI:      "OPENAI_API_KEY",
	transcribe.ProviderGemini:      "GEMINI_API_KEY",
	transcribe.ProviderHuggingFace: "HF_TOKEN",
}

func checkAPIKey(provider transcribe.Provider, apiKey string) error {
	if !provider.RequiresAPIKey() || strings.TrimSpace(apiKey) != "" {
		return nil
	}
	return fmt.Errorf("%w for %s: pass --api-key or set %s", transcribe.ErrMissingAPIKey, provider, apiKeyEnv[provider])
}

func parseProvider(name string) (transcribe.Provider, error) {
	p := transcribe.Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range transcribe.Providers() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q: use openai, gemini, huggingface, or whispercpp", transcribe.ErrUnsupportedProvider, name)
}

// parses and de-duplicates format names, keeping their order
func parseFormats(names []string) ([]subtitle.Format, error) {
	seen := make(map[subtitle.Format]bool, len(names))
	formats := make([]subtitle.Format, 0, len(names))
	for _, name := range names {
		f, err := subtitle.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("at least one output format is required")
	}
	return formats, nil
}

// the Whisper API can only keep the spoken language or translate to English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
