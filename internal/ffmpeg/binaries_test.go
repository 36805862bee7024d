package ffmpeg

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"
)

func TestResolverPrefersOverrides(t *testing.T) {
	r := &Resolver{
		Overrides: BinaryPaths{FFmpeg: "/opt/ffmpeg", FFprobe: "/opt/ffprobe"},
		LookPath: func(string) (string, error) {
			t.Fatal("PATH lookup should not run when both overrides are set")
			return "", nil
		},
	}

	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.FFmpeg != "/opt/ffmpeg" || got.FFprobe != "/opt/ffprobe" {
		t.Errorf("Resolve() = %+v", got)
	}
}

func TestResolverEnvironmentThenPath(t *testing.T) {
	r := &Resolver{
		Getenv: func(key string) string {
			if key == EnvFFmpegPath {
				return "/env/ffmpeg"
			}
			return ""
		},
		LookPath: func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		},
	}

	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.FFmpeg != "/env/ffmpeg" {
		t.Errorf("FFmpeg = %q, want environment value", got.FFmpeg)
	}
	if got.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("FFprobe = %q, want PATH value", got.FFprobe)
	}
}

func TestResolverDownloadsBundle(t *testing.T) {
	if _, err := assetForPlatform(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skip("no bundle for this platform")
	}

	cache := t.TempDir()
	var downloaded string
	r := &Resolver{
		CacheDir: cache,
		Getenv:   func(string) string { return "" },
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
		Download: func(assetName, installDir string) error {
			downloaded = assetName
			for _, name := range []string{"ffmpeg", "ffprobe"} {
				p := filepath.Join(installDir, name+executableSuffix())
				if err := os.WriteFile(p, []byte("bin"), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if downloaded == "" {
		t.Fatal("expected bundle download")
	}
	if filepath.Dir(got.FFmpeg) != filepath.Dir(got.FFprobe) {
		t.Errorf("binaries installed in different dirs: %+v", got)
	}
	if !binariesExist(got) {
		t.Errorf("installed binaries missing: %+v", got)
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip", false},
		{"plan9", "386", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetForPlatform(tt.goos, tt.goarch)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedPlatform) {
					t.Errorf("error = %v, want ErrUnsupportedPlatform", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("assetForPlatform() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"bin/ffmpeg", "bin/ffprobe", "README"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	installDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := extractArchive(archivePath, installDir); err != nil {
		t.Fatalf("extractArchive() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(installDir, "ffprobe"+executableSuffix()))
	if err != nil {
		t.Fatalf("ffprobe not extracted: %v", err)
	}
	if string(data) != "bin/ffprobe" {
		t.Errorf("ffprobe content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(installDir, "README")); !os.IsNotExist(err) {
		t.Error("unrelated entries should not be extracted")
	}
}

func TestBinaryName(t *testing.T) {
	tests := map[string]string{
		"ffmpeg":      "ffmpeg",
		"FFPROBE.EXE": "ffprobe",
		"ffplay":      "",
		"ffmpeg.txt":  "",
	}
	for in, want := range tests {
		if got := binaryName(in); got != want {
			t.Errorf("binaryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractEmbedded(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		w, err := zw.Create("bundle/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	prev := embeddedAssets
	embeddedAssets = fstest.MapFS{"bundle.zip": {Data: buf.Bytes()}}
	t.Cleanup(func() { embeddedAssets = prev })

	installDir := t.TempDir()
	ok, err := extractEmbedded("bundle.zip", installDir)
	if err != nil || !ok {
		t.Fatalf("extractEmbedded() = %v, %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(installDir, "ffmpeg"+executableSuffix())); err != nil {
		t.Errorf("ffmpeg not extracted: %v", err)
	}

	ok, err = extractEmbedded("other.zip", installDir)
	if err != nil || ok {
		t.Errorf("missing asset = %v, %v, want false, nil", ok, err)
	}

	embeddedAssets = nil
	if ok, err := extractEmbedded("bundle.zip", installDir); err != nil || ok {
		t.Errorf("without assets = %v, %v, want false, nil", ok, err)
	}
}
