package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
)

const defaultChunkConcurrency = 3

// holds the result of transcribing a chunk
type chunkResult struct {
	Index  int
	Result *Result
	Error  error
}

// transcribes a single chunk and shifts its timestamps by the chunk start
func transcribeChunk(ctx context.Context, t Transcriber, chunk audio.ChunkInfo) (*Result, error) {
	result, err := t.Transcribe(ctx, chunk.Path)
	if err != nil {
		return nil, err
	}

	offset := chunk.StartTime.Seconds()
	shifted := make([]subtitle.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		shifted[i] = subtitle.Segment{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  seg.Text,
		}
	}
	result.Segments = shifted
	return result, nil
}

// runs t over chunks with a bounded worker pool. Results are merged in
// chunk order; the first failure cancels the remaining work.
func transcribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
	language string,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{Language: language}, nil
	}
	if concurrency <= 0 {
		concurrency = defaultChunkConcurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for range min(concurrency, len(chunks)) {
		wg.Go(func() {
			for chunk := range workChan {
				if ctx.Err() != nil {
					return
				}
				result, err := transcribeChunk(ctx, t, chunk)
				if err != nil {
					cancel()
				}
				resultChan <- chunkResult{Index: chunk.Index, Result: result, Error: err}
			}
		})
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for r := range resultChan {
		if r.Error != nil {
			// keep the root cause, not a sibling cancellation
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(r.Error, context.Canceled)) {
				firstErr = fmt.Errorf("chunk %d failed: %w", r.Index, r.Error)
			}
			continue
		}
		results = append(results, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) < len(chunks) {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	merged := &Result{
		Language: language,
		Duration: chunks[len(chunks)-1].EndTime,
	}
	var texts []string
	for _, r := range results {
		merged.Segments = append(merged.Segments, r.Result.Segments...)
		if text := r.Result.PlainText(); text != "" {
			texts = append(texts, text)
		}
		if merged.Language == "" {
			merged.Language = r.Result.Language
		}
	}
	merged.Text = strings.Join(texts, " ")
	return merged, nil
}
