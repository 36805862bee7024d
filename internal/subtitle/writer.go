package subtitle

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// renders segments in the requested format
func Render(format Format, segments []Segment) (string, error) {
	switch format {
	case SRT:
		return FormatSRT(segments)
	case VTT:
		return FormatVTT(segments)
	case Text:
		return FormatText(segments), nil
	case JSON:
		if segments == nil {
			segments = []Segment{}
		}
		data, err := json.MarshalIndent(segments, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode segments: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// joins trimmed segment texts with single spaces
func FormatText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// Writer renders documents onto a filesystem.
type Writer struct {
	fs afero.Fs
}

func NewWriter(fs afero.Fs) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs}
}

// renders segments and writes them to path, creating parent directories
func (w *Writer) Write(format Format, segments []Segment, path string) error {
	doc, err := Render(format, segments)
	if err != nil {
		return err
	}
	return w.WriteDocument(doc, path)
}

// writes an already rendered document, e.g. a backend's full text
func (w *Writer) WriteDocument(doc, path string) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(w.fs, path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// output path for format, derived from the input's base name
func OutputPath(inputPath, outputDir string, format Format) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, base+ExtensionFor(format))
}
