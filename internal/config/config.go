package config

import "github.com/clipforge/video-composer/pkg/types"

// ComposeOptions defines options for one composition run
type ComposeOptions struct {
	VideoPath       string
	SubtitlePath    string
	BGMPath         string
	NarrationPath   string
	OutputPath      string
	SubtitleEnabled bool
	Encoder         string // empty means probe for the best available one
	CanvasWidth     int    // 0 keeps the source frame size
	CanvasHeight    int
	Verbose         bool
}

// SubtitleStyle defines how subtitle overlays are rendered
type SubtitleStyle struct {
	FontPath    string
	FontSize    float64
	Color       string
	StrokeColor string
	StrokeWidth int
	BGColor     string // empty means no background box

	// Position is the symbolic placement; PositionFraction, when set,
	// overrides it with a fraction-of-height offset from the top.
	Position         types.SubtitlePosition
	PositionFraction *float64
}

// VolumeConfig maps each audio role to a linear gain multiplier in [0,1]
type VolumeConfig struct {
	Original  float64
	BGM       float64
	Narration float64
}

// DefaultVolumes returns the gain levels used when a role is not configured
func DefaultVolumes() VolumeConfig {
	return VolumeConfig{
		Original:  1.0,
		BGM:       0.3,
		Narration: 1.0,
	}
}

// DefaultStyle returns the subtitle style used when none is configured
func DefaultStyle() SubtitleStyle {
	return SubtitleStyle{
		FontSize:    60,
		Color:       "white",
		StrokeColor: "black",
		StrokeWidth: 2,
		Position:    types.SubtitlePositionBottom,
	}
}

const (
	// SubtitleMargin is the distance in pixels kept between subtitle
	// overlays and the frame edge for the symbolic positions.
	SubtitleMargin = 50

	// SubtitleWidthRatio bounds wrapped subtitle text to a fraction of
	// the frame width.
	SubtitleWidthRatio = 0.9

	// Temporary directory prefix for overlay render buffers
	TempDirPrefix = "video_composer_"
)
