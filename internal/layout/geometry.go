package layout

// Placement describes how a source frame fits inside a target canvas
type Placement struct {
	ScaledWidth  int
	ScaledHeight int
	OffsetX      int
	OffsetY      int
	TargetWidth  int
	TargetHeight int
	Padded       bool
}

// FitToCanvas computes a uniform scale that fits a clip entirely inside the
// target canvas, centered on a black background. When the aspect ratios
// match the clip scales directly to the target and no padding is added.
func FitToCanvas(clipWidth, clipHeight, targetWidth, targetHeight int) Placement {
	clipRatio := float64(clipWidth) / float64(clipHeight)
	targetRatio := float64(targetWidth) / float64(targetHeight)

	if clipRatio == targetRatio {
		return Placement{
			ScaledWidth:  targetWidth,
			ScaledHeight: targetHeight,
			TargetWidth:  targetWidth,
			TargetHeight: targetHeight,
		}
	}

	var scale float64
	if clipRatio > targetRatio {
		scale = float64(targetWidth) / float64(clipWidth)
	} else {
		scale = float64(targetHeight) / float64(clipHeight)
	}

	scaledWidth := int(float64(clipWidth) * scale)
	scaledHeight := int(float64(clipHeight) * scale)

	// Some codecs require even dimensions
	scaledWidth -= scaledWidth % 2
	scaledHeight -= scaledHeight % 2

	return Placement{
		ScaledWidth:  scaledWidth,
		ScaledHeight: scaledHeight,
		OffsetX:      (targetWidth - scaledWidth) / 2,
		OffsetY:      (targetHeight - scaledHeight) / 2,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
		Padded:       true,
	}
}
