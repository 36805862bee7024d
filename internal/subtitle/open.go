package subtitle

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// reads segments from an existing subtitle or segments file
func Open(fs afero.Fs, path string) ([]Segment, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return ParseSRT(bytes.NewReader(data))
	case ".vtt":
		return ParseVTT(bytes.NewReader(data))
	case ".json":
		return ParseSegmentsJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
