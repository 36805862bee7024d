//go:build ffmpeg_embedded

package ffmpeg

import (
	"embed"
	"io/fs"
)

// populated by scripts that drop per-platform zips into assets/ before a
// release build with -tags ffmpeg_embedded
//
//go:embed assets/*.zip
var bundledArchives embed.FS

func init() {
	sub, err := fs.Sub(bundledArchives, "assets")
	if err != nil {
		panic(err)
	}
	embeddedAssets = sub
}
