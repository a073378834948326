package layout

import (
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
)

// LoadFace parses a TTF/OTF file and returns a face at the given point size.
func LoadFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read font %s", path)
	}

	fnt, err := truetype.Parse(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse font")
	}

	return truetype.NewFace(fnt, &truetype.Options{
		Size: size,
		DPI:  72,
	}), nil
}

// Wrap breaks text into lines so that no rendered line exceeds maxWidth
// pixels, and returns the wrapped text along with the total pixel height of
// the block. It first tries to break at spaces; if any single word is wider
// than the budget it falls back to breaking between individual characters,
// which terminates for any input. Text that already fits (including empty
// or all-whitespace text) is returned unchanged.
func Wrap(text string, maxWidth int, face font.Face) (string, int) {
	lineH := LineHeight(face)

	if measure(face, text) <= maxWidth {
		return text, lineH
	}

	if lines, ok := wrapWords(text, maxWidth, face); ok {
		return strings.Join(lines, "\n"), len(lines) * lineH
	}

	lines := wrapChars(text, maxWidth, face)
	return strings.Join(lines, "\n"), len(lines) * lineH
}

// LineHeight returns the pixel height of a single line in the given face.
func LineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, strings.TrimSpace(s)).Ceil()
}

// wrapWords greedily packs whole words into lines. It reports false when a
// single word on its own exceeds maxWidth, meaning no valid break exists.
func wrapWords(text string, maxWidth int, face font.Face) ([]string, bool) {
	var lines []string
	cur := ""

	for _, word := range strings.Split(text, " ") {
		cand := word
		if cur != "" {
			cand = cur + " " + word
		}
		if measure(face, cand) <= maxWidth {
			cur = cand
			continue
		}
		if cur == "" {
			return nil, false
		}
		lines = append(lines, cur)
		if measure(face, word) > maxWidth {
			return nil, false
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines, true
}

// wrapChars packs individual characters, guaranteeing termination even for
// unbroken tokens like URLs or CJK text.
func wrapChars(text string, maxWidth int, face font.Face) []string {
	var lines []string
	cur := ""

	for _, r := range text {
		cand := cur + string(r)
		if cur != "" && measure(face, cand) > maxWidth {
			lines = append(lines, cur)
			cur = string(r)
			continue
		}
		cur = cand
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
