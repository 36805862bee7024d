package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studentsforfg/transcriber/internal/config"
	"github.com/studentsforfg/transcriber/internal/ffmpeg"
	"github.com/studentsforfg/transcriber/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "transcriber",
	Short: "Transcribe audio into text and subtitles",
	Long: `Transcriber turns audio and video recordings into plain text and
SRT subtitles using a Whisper model, hosted or local.

It can run once from the command line or serve an HTTP API that accepts
uploads and offers the results for download.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Loader{ConfigPath: configPath}.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		ffmpeg.Configure(ffmpeg.BinaryPaths{
			FFmpeg:  cfg.Paths.FFmpeg,
			FFprobe: cfg.Paths.FFprobe,
		})

		if lang, _ := cmd.Flags().GetString("language"); lang != "" {
			cfg.Language = lang
		}
		logger.Debugw("Configuration loaded", "provider", cfg.Provider, "config", configPath)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", config.ConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory (default: next to the input)")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Source language code (e.g., en, es, fr)")
}
