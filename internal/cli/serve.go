package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/logging"
	"github.com/studentsforfg/transcriber/internal/server"
	"github.com/studentsforfg/transcriber/internal/transcribe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcription API",
	Long: `Serve accepts audio uploads over HTTP and returns the transcript as
JSON, with downloads in SRT, VTT, text and JSON.

Endpoints:
  POST /api/transcriptions              multipart "file" (+ optional "language")
  GET  /api/transcriptions/:id/:format  download srt, vtt, txt or json
  POST /api/subtitles?format=srt        render {"segments": [...]}
  GET  /healthz

Examples:
  transcriber serve
  transcriber serve --addr 0.0.0.0:8501 --provider huggingface`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config: 127.0.0.1:8501)")
	serveCmd.Flags().StringP("provider", "p", "", "Transcription provider (openai, gemini, huggingface, whispercpp)")
	serveCmd.Flags().StringP("api-key", "k", "", "API key (or set OPENAI_API_KEY/GEMINI_API_KEY/HF_TOKEN)")
	serveCmd.Flags().String("model", "", "Model to use (provider-specific)")
	serveCmd.Flags().Bool("json-logs", false, "Log as JSON at the configured server log level")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	providerName, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	if addr == "" {
		addr = cfg.Server.Addr
	}
	if providerName == "" {
		providerName = cfg.Provider
	}
	provider, err := parseProvider(providerName)
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = cfg.APIKey(string(provider))
	}
	if model == "" {
		model = cfg.Model
	}
	if err := checkAPIKey(provider, apiKey); err != nil {
		return err
	}

	log := logger
	if jsonLogs {
		if log, err = logging.NewJSONLogger(cfg.Server.LogLevel); err != nil {
			return fmt.Errorf("invalid server log level: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := transcribe.Options{
		Language:   cfg.Language,
		Model:      model,
		BinaryPath: cfg.Whisper.Binary,
		ModelPath:  cfg.Whisper.ModelPath,
	}
	if provider == transcribe.ProviderHuggingFace {
		opts.BaseURL = cfg.HuggingFace.Endpoint
	}
	newTranscriber := server.FactoryTranscribers(provider, apiKey, opts)

	// surface a missing key or model at startup
	if _, err := newTranscriber(ctx, cfg.Language); err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	prepareOpts := audio.DefaultPrepareOptions()
	if provider == transcribe.ProviderWhisperCpp {
		prepareOpts.Format = "wav"
	}

	ttl, err := cfg.CacheTTL()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		MaxUploadMB:   cfg.Server.MaxUploadMB,
		MaxConcurrent: cfg.Server.MaxConcurrent,
		CacheSize:     cfg.Server.CacheSize,
		CacheTTL:      ttl,
		Language:      cfg.Language,
	}, newTranscriber, server.DefaultPrepare(prepareOpts), log)

	log.Infow("Transcription API ready", "addr", addr, "provider", provider)
	return srv.Run(ctx, addr)
}
