package report

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

// Candidate files under the assets directory, probed in order. All of them
// are optional: the document degrades (core font, no logo) when nothing
// matches.
var (
	fontCandidates = []string{
		"fonts/NotoSans-Regular.ttf",
		"fonts/NotoSansDisplay-Regular.ttf",
		"fonts/DejaVuSans.ttf",
	}
	fontBoldCandidates = []string{
		"fonts/NotoSans-Bold.ttf",
		"fonts/NotoSansDisplay-Bold.ttf",
		"fonts/DejaVuSans-Bold.ttf",
	}
	logoCandidates = []string{"logo.jpeg", "logo.jpg", "logo.png"}
)

// findAsset returns the first candidate that exists as a regular file, or "".
func findAsset(dir string, candidates []string) string {
	if dir == "" {
		return ""
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// findLogo locates a decodable logo image and reports its pixel dimensions.
// A file that exists but does not decode is skipped, so a corrupt upload can
// never break report generation.
func findLogo(dir string) (path string, width, height int) {
	if dir == "" {
		return "", 0, 0
	}
	for _, name := range logoCandidates {
		p := filepath.Join(dir, name)
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
			continue
		}
		return p, cfg.Width, cfg.Height
	}
	return "", 0, 0
}
