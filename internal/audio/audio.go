package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/studentsforfg/transcriber/internal/ffmpeg"
)

// PrepareOptions controls the audio handed to a transcription backend
type PrepareOptions struct {
	Format     string // mp3, aac, flac or wav
	SampleRate int    // Hz
	Channels   int    // 1=mono, 2=stereo
	Bitrate    string // e.g. "64k"; ignored for wav
}

// 16 kHz mono is what Whisper models are trained on
func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration probes a media file with ffprobe
func Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("media file not found: %w", err)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Prepare re-encodes any supported media (video included) into a
// transcription-friendly audio file at outputPath
func Prepare(ctx context.Context, inputPath, outputPath string, opts PrepareOptions) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	err = ffmpeg.Input(inputPath).
		Output(outputPath, encodeArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		WithTimeout(prepareTimeout(ctx)).
		Run()
	if err != nil {
		return fmt.Errorf("audio preparation failed: %w", err)
	}
	return nil
}

func encodeArgs(opts PrepareOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}

	switch opts.Format {
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
		return kwargs
	case "flac":
		kwargs["acodec"] = "flac"
		return kwargs
	case "aac":
		kwargs["acodec"] = "aac"
	default:
		kwargs["acodec"] = "libmp3lame"
	}
	if opts.Bitrate != "" {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// ffmpeg-go only knows timeouts, so derive one from the context deadline
func prepareTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return 0
}

// PreparedPath names the prepared audio for an input inside dir
func PreparedPath(inputPath, dir string, opts PrepareOptions) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	format := opts.Format
	if format == "" {
		format = "mp3"
	}
	return filepath.Join(dir, base+"_prepared."+format)
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".wma":  true,
	".aiff": true,
}

func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}
