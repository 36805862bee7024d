package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studentsforfg/transcriber/internal/audio"
)

var extractCmd = &cobra.Command{
	Use:   "extract [media_file]",
	Short: "Extract transcription-ready audio from a media file",
	Long: `Extract re-encodes the audio track of a video or audio file the same way
it is prepared before upload, and keeps the result.

Supported output formats: mp3, wav, aac, flac.

Examples:
  transcriber extract video.mp4
  transcriber extract video.mp4 -f wav -o audio/
  transcriber extract talk.m4a --format flac --sample-rate 44100 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	defaults := audio.DefaultPrepareOptions()
	extractCmd.Flags().
		StringP("format", "f", defaults.Format, "Output audio format (mp3, wav, aac, flac)")
	extractCmd.Flags().
		IntP("sample-rate", "r", defaults.SampleRate, "Sample rate in Hz (e.g., 16000, 44100, 48000)")
	extractCmd.Flags().
		IntP("channels", "c", defaults.Channels, "Number of audio channels (1=mono, 2=stereo)")
	extractCmd.Flags().
		StringP("bitrate", "b", defaults.Bitrate, "Bitrate for lossy formats (e.g., 64k, 128k)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported media file: %s", mediaPath)
	}

	format, _ := cmd.Flags().GetString("format")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputDir, _ := cmd.Flags().GetString("output")

	opts := audio.PrepareOptions{
		Format:     strings.ToLower(format),
		SampleRate: sampleRate,
		Channels:   channels,
		Bitrate:    bitrate,
	}
	if err := validateExtractOptions(opts); err != nil {
		return err
	}

	outputPath := extractOutputPath(mediaPath, outputDir, opts.Format)
	if outputPath == mediaPath {
		return fmt.Errorf("refusing to overwrite input %s", mediaPath)
	}

	logger.Infow("Extracting audio",
		"input", mediaPath,
		"output", outputPath,
		"format", opts.Format,
		"sample_rate", opts.SampleRate,
		"channels", opts.Channels,
	)

	if err := audio.Prepare(cmd.Context(), mediaPath, outputPath, opts); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Audio extracted successfully: %s\n", absOutput)
	return nil
}

func validateExtractOptions(opts audio.PrepareOptions) error {
	switch opts.Format {
	case "mp3", "wav", "aac", "flac":
	default:
		return fmt.Errorf("invalid format %q: supported formats are mp3, wav, aac, flac", opts.Format)
	}
	if opts.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", opts.SampleRate)
	}
	if opts.Channels < 1 || opts.Channels > 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", opts.Channels)
	}
	return nil
}

// <dir>/<base>.<format>, next to the input when dir is empty
func extractOutputPath(mediaPath, outputDir, format string) string {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(mediaPath)
	}
	return filepath.Join(dir, base+"."+format)
}
