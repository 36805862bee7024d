package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	EnvFFmpegPath  = "TRANSCRIBER_FFMPEG_PATH"
	EnvFFprobePath = "TRANSCRIBER_FFPROBE_PATH"
)

var ErrUnsupportedPlatform = errors.New("no bundled ffmpeg for this platform")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Resolver finds ffmpeg and ffprobe: explicit overrides first, then PATH,
// then a cached or freshly downloaded bundle.
type Resolver struct {
	Overrides BinaryPaths
	CacheDir  string
	LookPath  func(string) (string, error)
	Getenv    func(string) string
	Download  func(assetName, installDir string) error
}

var (
	defaultMu       sync.Mutex
	defaultResolver = &Resolver{}

	ensureOnce sync.Once
	ensurePath BinaryPaths
	ensureErr  error
)

// Configure sets path overrides used by the package level helpers. It must
// be called before the first FFmpegPath or FFprobePath call.
func Configure(overrides BinaryPaths) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultResolver = &Resolver{Overrides: overrides}
}

func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		defaultMu.Lock()
		r := defaultResolver
		defaultMu.Unlock()
		ensurePath, ensureErr = r.Resolve()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (r *Resolver) Resolve() (BinaryPaths, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	paths := r.Overrides
	if paths.FFmpeg == "" {
		paths.FFmpeg = getenv(EnvFFmpegPath)
	}
	if paths.FFprobe == "" {
		paths.FFprobe = getenv(EnvFFprobePath)
	}
	if paths.FFmpeg == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			paths.FFmpeg = found
		}
	}
	if paths.FFprobe == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			paths.FFprobe = found
		}
	}
	if paths.FFmpeg != "" && paths.FFprobe != "" {
		return paths, nil
	}

	return r.installBundle()
}

func (r *Resolver) installBundle() (BinaryPaths, error) {
	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}

	installDir := filepath.Join(r.cacheRoot(), "ffmpeg", releaseVersion, runtime.GOOS, runtime.GOARCH)
	bundled := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}
	if binariesExist(bundled) {
		return bundled, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embedded, err := extractEmbedded(assetName, installDir)
	if err != nil {
		return BinaryPaths{}, err
	}
	if !embedded {
		download := r.Download
		if download == nil {
			download = downloadAndExtract
		}
		if err := download(assetName, installDir); err != nil {
			return BinaryPaths{}, err
		}
	}

	if !binariesExist(bundled) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}
	if err := makeExecutable(bundled); err != nil {
		return BinaryPaths{}, err
	}
	return bundled, nil
}

func (r *Resolver) cacheRoot() string {
	if r.CacheDir != "" {
		return r.CacheDir
	}
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "transcriber")
}

func assetForPlatform(goos, goarch string) (string, error) {
	prefix := "ffmpeg-" + releaseVersion
	switch {
	case goos == "linux" && goarch == "amd64":
		return prefix + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return prefix + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return prefix + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return prefix + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
}

func makeExecutable(paths BinaryPaths) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	for _, p := range []string{paths.FFmpeg, paths.FFprobe} {
		if err := os.Chmod(p, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

func binariesExist(paths BinaryPaths) bool {
	return fileExists(paths.FFmpeg) && fileExists(paths.FFprobe)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
