package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PipelineChunk is the chunk shape emitted by the transformers ASR pipeline
// with return_timestamps. The final chunk may carry a null end.
type PipelineChunk struct {
	Timestamp [2]*float64 `json:"timestamp"`
	Text      string      `json:"text"`
}

type segmentDocument struct {
	Segments []Segment       `json:"segments"`
	Chunks   []PipelineChunk `json:"chunks"`
}

// decodes segments from a bare array, a Whisper verbose_json object
// ("segments") or a pipeline result ("chunks")
func ParseSegmentsJSON(data []byte) ([]Segment, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty segments document")
	}

	if data[0] == '[' {
		var segments []Segment
		if err := json.Unmarshal(data, &segments); err != nil {
			return nil, fmt.Errorf("failed to parse segments: %w", err)
		}
		return segments, nil
	}

	var doc segmentDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse segments: %w", err)
	}
	if doc.Segments != nil {
		return doc.Segments, nil
	}
	if doc.Chunks != nil {
		return ChunksToSegments(doc.Chunks), nil
	}
	return nil, fmt.Errorf("no segments or chunks in document")
}

// converts pipeline chunks; a missing start is 0 and a missing end falls
// back to the start
func ChunksToSegments(chunks []PipelineChunk) []Segment {
	segments := make([]Segment, 0, len(chunks))
	for _, c := range chunks {
		var seg Segment
		if c.Timestamp[0] != nil {
			seg.Start = *c.Timestamp[0]
		}
		seg.End = seg.Start
		if c.Timestamp[1] != nil {
			seg.End = *c.Timestamp[1]
		}
		seg.Text = c.Text
		segments = append(segments, seg)
	}
	return segments
}
