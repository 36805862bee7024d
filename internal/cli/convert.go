package cli

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/studentsforfg/transcriber/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [segments.json|file.srt|file.vtt]",
	Short: "Re-render segments or subtitles into another format",
	Long: `Convert reads timestamped segments and renders them again.

Input may be a JSON segment list (a bare array, a Whisper verbose_json
object, or a pipeline result with "chunks"), an SRT file, or a WebVTT file.

With a single format and no --output the document is printed to stdout.

Examples:
  transcriber convert segments.json
  transcriber convert talk.vtt --format srt
  transcriber convert talk.srt -f vtt,txt -o subs/`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringSliceP("format", "f", []string{"srt"}, "Output formats (srt, vtt, txt, json)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	formatNames, _ := cmd.Flags().GetStringSlice("format")
	outputDir, _ := cmd.Flags().GetString("output")

	formats, err := parseFormats(formatNames)
	if err != nil {
		return err
	}

	written, err := convertFile(afero.NewOsFs(), args[0], formats, outputDir, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Infow("Wrote output", "path", path)
	}
	return nil
}

// renders input into each format. A single format without an output
// directory goes to stdout instead of a file.
func convertFile(fs afero.Fs, inputPath string, formats []subtitle.Format, outputDir string, stdout io.Writer) ([]string, error) {
	segments, err := subtitle.Open(fs, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	if len(formats) == 1 && outputDir == "" {
		doc, err := subtitle.Render(formats[0], segments)
		if err != nil {
			return nil, err
		}
		_, err = io.WriteString(stdout, doc)
		return nil, err
	}

	w := subtitle.NewWriter(fs)
	written := make([]string, 0, len(formats))
	for _, format := range formats {
		path := subtitle.OutputPath(inputPath, outputDir, format)
		if path == inputPath {
			return written, fmt.Errorf("refusing to overwrite input %s", inputPath)
		}
		if err := w.Write(format, segments, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
