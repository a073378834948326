package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clipforge/video-composer/internal/composer"
	"github.com/clipforge/video-composer/internal/config"
	"github.com/clipforge/video-composer/internal/encoder"
	"github.com/clipforge/video-composer/internal/logging"
	"github.com/clipforge/video-composer/pkg/types"
)

var (
	rootCmd = &cobra.Command{
		Use:   "video-composer",
		Short: "A video composition tool for layered renders",
		Long: `video-composer assembles a final video from a source track, timed subtitle
overlays, background music, and narration, then encodes it with the best
available hardware encoder, falling back to software on failure.

Examples:
  # Burn subtitles and mix in background music at 30% volume
  video-composer compose -i input.mp4 -o output.mp4 --subtitles subs.srt --bgm music.mp3

  # Narrated video with subtitles pinned near the top
  video-composer compose -i input.mp4 -o output.mp4 --subtitles subs.srt \
    --narration voice.mp3 --position top`,
	}

	composeCmd = &cobra.Command{
		Use:   "compose",
		Short: "Compose video, subtitles, and audio into one rendered file",
		Long: fmt.Sprintf(`Compose a source video with optional subtitle overlays, background music,
and narration into a single rendered output.

Supported encoder vendors:
%s

Example:
  video-composer compose -i input.mp4 -o output.mp4 --subtitles subs.srt --bgm music.mp3`,
			formatSupportedVendors()),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.ComposeOptions{}

			opts.VideoPath, _ = cmd.Flags().GetString("input")
			opts.OutputPath, _ = cmd.Flags().GetString("output")
			opts.SubtitlePath, _ = cmd.Flags().GetString("subtitles")
			opts.BGMPath, _ = cmd.Flags().GetString("bgm")
			opts.NarrationPath, _ = cmd.Flags().GetString("narration")
			opts.Encoder, _ = cmd.Flags().GetString("encoder")
			opts.CanvasWidth, _ = cmd.Flags().GetInt("width")
			opts.CanvasHeight, _ = cmd.Flags().GetInt("height")
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")

			noSubtitles, _ := cmd.Flags().GetBool("no-subtitles")
			opts.SubtitleEnabled = !noSubtitles

			if opts.VideoPath == "" || opts.OutputPath == "" {
				return fmt.Errorf("input and output paths are required")
			}

			style := config.DefaultStyle()
			style.FontPath, _ = cmd.Flags().GetString("font")
			if size, _ := cmd.Flags().GetFloat64("font-size"); size > 0 {
				style.FontSize = size
			}
			if v, _ := cmd.Flags().GetString("color"); v != "" {
				style.Color = v
			}
			if v, _ := cmd.Flags().GetString("stroke-color"); v != "" {
				style.StrokeColor = v
			}
			if w, _ := cmd.Flags().GetInt("stroke-width"); w >= 0 {
				style.StrokeWidth = w
			}
			style.BGColor, _ = cmd.Flags().GetString("bg-color")

			position, _ := cmd.Flags().GetString("position")
			if err := applyPosition(&style, position); err != nil {
				return err
			}

			volumes := config.DefaultVolumes()
			volumes.Original, _ = cmd.Flags().GetFloat64("volume-original")
			volumes.BGM, _ = cmd.Flags().GetFloat64("volume-bgm")
			volumes.Narration, _ = cmd.Flags().GetFloat64("volume-narration")

			logging.Init(opts.Verbose)
			log := logging.WithComponent("composer")

			_, err := composer.New(opts, style, volumes, log).Compose()
			return err
		},
	}
)

// applyPosition accepts a symbolic name (top, center, bottom) or a float in
// [0,1] meaning fraction-of-height from the top.
func applyPosition(style *config.SubtitleStyle, position string) error {
	if position == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(position, 64); err == nil {
		if f < 0 || f > 1 {
			return fmt.Errorf("position fraction must be in [0,1], got %s", position)
		}
		style.PositionFraction = &f
		return nil
	}
	style.Position = types.SubtitlePosition(strings.ToLower(position))
	return nil
}

func formatSupportedVendors() string {
	var sb strings.Builder
	for _, vendor := range encoder.Vendors() {
		sb.WriteString(fmt.Sprintf("- %s\n", vendor))
	}
	return sb.String()
}

func init() {
	composeCmd.Flags().StringP("input", "i", "", "Source video file")
	composeCmd.Flags().StringP("output", "o", "", "Output video path")
	composeCmd.Flags().StringP("subtitles", "s", "", "SRT subtitle file")
	composeCmd.Flags().String("bgm", "", "Background music file")
	composeCmd.Flags().String("narration", "", "Narration audio file")
	composeCmd.Flags().String("font", "", "Font file for subtitles (.ttf/.otf)")
	composeCmd.Flags().Float64("font-size", 60, "Subtitle font size")
	composeCmd.Flags().String("color", "white", "Subtitle text color")
	composeCmd.Flags().String("stroke-color", "black", "Subtitle stroke color")
	composeCmd.Flags().Int("stroke-width", 2, "Subtitle stroke width in pixels")
	composeCmd.Flags().String("bg-color", "", "Subtitle background box color")
	composeCmd.Flags().String("position", "bottom", "Subtitle position: top, center, bottom, or a fraction in [0,1]")
	composeCmd.Flags().Bool("no-subtitles", false, "Disable subtitle rendering")
	composeCmd.Flags().Float64("volume-original", 1.0, "Gain for the video's own audio")
	composeCmd.Flags().Float64("volume-bgm", 0.3, "Gain for background music")
	composeCmd.Flags().Float64("volume-narration", 1.0, "Gain for narration")
	composeCmd.Flags().String("encoder", "", "Encoder identifier (default: probe for the best available)")
	composeCmd.Flags().Int("width", 0, "Target canvas width (default: source width)")
	composeCmd.Flags().Int("height", 0, "Target canvas height (default: source height)")
	composeCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	composeCmd.MarkFlagRequired("input")
	composeCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(composeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
