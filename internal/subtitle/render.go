package subtitle

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/clipforge/video-composer/internal/config"
	"github.com/clipforge/video-composer/internal/layout"
)

// Render rasterizes wrapped text (lines separated by "\n") onto a
// transparent canvas and writes it as PNG to destPath. It returns the
// rendered dimensions. Lines are drawn horizontally centered, with an
// optional stroke and background box per the style.
func Render(text string, face font.Face, style config.SubtitleStyle, destPath string) (int, int, error) {
	lines := strings.Split(text, "\n")
	lineH := layout.LineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()
	pad := style.StrokeWidth + 2

	width := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * pad
	height := len(lines)*lineH + 2*pad

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	if style.BGColor != "" {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(ParseColor(style.BGColor)), image.Point{}, draw.Src)
	}

	textColor := ParseColor(style.Color)
	strokeColor := ParseColor(style.StrokeColor)

	for i, line := range lines {
		lineW := font.MeasureString(face, line).Ceil()
		x := (width - lineW) / 2
		y := pad + i*lineH + ascent

		if style.StrokeWidth > 0 {
			drawStroke(canvas, face, line, x, y, style.StrokeWidth, strokeColor)
		}
		drawString(canvas, face, line, x, y, textColor)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to create overlay buffer")
	}
	defer f.Close()

	if err := png.Encode(f, canvas); err != nil {
		return 0, 0, errors.Wrap(err, "failed to encode overlay buffer")
	}
	return width, height, nil
}

func drawString(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawStroke approximates an outline by redrawing the text at every offset
// within the stroke radius.
func drawStroke(dst draw.Image, face font.Face, s string, x, y, width int, c color.Color) {
	for dx := -width; dx <= width; dx++ {
		for dy := -width; dy <= width; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(dst, face, s, x+dx, y+dy, c)
		}
	}
}

var namedColors = map[string]color.RGBA{
	"white":  {255, 255, 255, 255},
	"black":  {0, 0, 0, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"gray":   {128, 128, 128, 255},
}

// ParseColor accepts a known color name, #RRGGBB, or #RRGGBBAA. Unknown
// values fall back to white.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 || len(hex) == 8 {
		if v, err := strconv.ParseUint(hex, 16, 64); err == nil {
			if len(hex) == 6 {
				return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
			}
			return color.RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}
		}
	}

	return namedColors["white"]
}
