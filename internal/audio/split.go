package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	ffmpegbin "github.com/studentsforfg/transcriber/internal/ffmpeg"
)

// ChunkInfo locates one slice of a longer recording
type ChunkInfo struct {
	Path      string
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
}

const defaultSplitConcurrency = 10

// Split cuts audioPath into chunkDuration pieces under outputDir. Chunks
// are returned in index order. Concurrency <= 0 uses 10 workers.
func Split(
	ctx context.Context,
	audioPath string,
	chunkDuration time.Duration,
	outputDir string,
	concurrency int,
) ([]ChunkInfo, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}
	if concurrency <= 0 {
		concurrency = defaultSplitConcurrency
	}

	total, err := Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	chunks := planChunks(audioPath, total, chunkDuration, outputDir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := ffmpeg.Input(audioPath).
				Output(chunk.Path, ffmpeg.KwArgs{
					"ss": chunk.StartTime.Seconds(),
					"t":  (chunk.EndTime - chunk.StartTime).Seconds(),
					"c":  "copy",
				}).
				OverWriteOutput().
				SetFfmpegPath(ffmpegPath).
				Run()
			if err != nil {
				return fmt.Errorf("failed to create chunk %d: %w", chunk.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = CleanupChunks(chunks)
		return nil, err
	}

	return chunks, nil
}

// lays out chunk boundaries; the last chunk is clipped to total
func planChunks(audioPath string, total, chunkDuration time.Duration, outputDir string) []ChunkInfo {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	var chunks []ChunkInfo
	for i := 0; ; i++ {
		start := time.Duration(i) * chunkDuration
		if start >= total {
			break
		}
		end := min(start+chunkDuration, total)
		chunks = append(chunks, ChunkInfo{
			Path:      filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", base, i, ext)),
			Index:     i,
			StartTime: start,
			EndTime:   end,
		})
	}
	return chunks
}

// CleanupChunks removes chunk files, returning the last failure
func CleanupChunks(chunks []ChunkInfo) error {
	var lastErr error
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
