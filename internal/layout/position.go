package layout

import (
	"math"

	"github.com/clipforge/video-composer/internal/config"
	"github.com/clipforge/video-composer/pkg/types"
)

// XCenter is the ffmpeg overlay expression that centers a layer horizontally.
const XCenter = "(main_w-overlay_w)/2"

// PositionRequest selects the vertical placement of a subtitle overlay.
// Fraction, when set, takes precedence over Symbolic and is interpreted as
// fraction-of-height from the top of the canvas.
type PositionRequest struct {
	Fraction *float64
	Symbolic types.SubtitlePosition
}

// SubtitleY maps a position request plus the measured text height to an
// absolute vertical coordinate on the canvas. The function is total: any
// unrecognized symbolic value falls back to the bottom placement.
func SubtitleY(req PositionRequest, canvasHeight, textHeight int) int {
	if req.Fraction != nil {
		return int(math.Round(float64(canvasHeight) * *req.Fraction))
	}

	switch req.Symbolic {
	case types.SubtitlePositionTop:
		return config.SubtitleMargin
	case types.SubtitlePositionCenter:
		return canvasHeight / 2
	default:
		return canvasHeight - config.SubtitleMargin - textHeight
	}
}
