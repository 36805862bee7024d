package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func downloadAndExtract(assetName, installDir string) error {
	url := fmt.Sprintf("%s/v%s/%s", releaseBaseURL, releaseVersion, assetName)
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}
	return extractFromReader(assetName, resp.Body, installDir)
}

// archives compiled into release builds; nil unless built with ffmpeg_embedded
var embeddedAssets fs.FS

func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	if embeddedAssets == nil {
		return nil, false, nil
	}
	file, err := embeddedAssets.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return file, true, nil
}

func extractEmbedded(assetName, installDir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	return true, extractFromReader(assetName, reader, installDir)
}

// zip needs random access, so the stream is spooled to a temp file first
func extractFromReader(assetName string, reader io.Reader, installDir string) error {
	tmp, err := os.CreateTemp("", "transcriber-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmp.Name()
	defer func() { _ = os.Remove(archivePath) }()

	_, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, installDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	found := map[string]bool{}
	for _, file := range zr.File {
		tool := binaryName(filepath.Base(file.Name))
		if tool == "" {
			continue
		}
		dest := filepath.Join(installDir, tool+executableSuffix())
		if err := extractZipFile(file, dest); err != nil {
			return err
		}
		found[tool] = true
	}

	if !found["ffmpeg"] || !found["ffprobe"] {
		return errors.New("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return nil
}

// "ffmpeg" or "ffprobe" for a matching archive entry, empty otherwise
func binaryName(name string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")
	if name == "ffmpeg" || name == "ffprobe" {
		return name
	}
	return ""
}
