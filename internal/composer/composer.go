package composer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/clipforge/video-composer/internal/config"
	"github.com/clipforge/video-composer/internal/encoder"
	"github.com/clipforge/video-composer/internal/layout"
	"github.com/clipforge/video-composer/internal/media"
	"github.com/clipforge/video-composer/internal/subtitle"
)

// ErrVideoNotFound reports a missing source video; the pipeline aborts
// before any resource is opened.
var ErrVideoNotFound = errors.New("source video not found")

// SubtitleStatus reports what the subtitle stage did and, when it skipped,
// why. Tests assert on it directly instead of scraping log output.
type SubtitleStatus int

const (
	SubtitlesBuilt SubtitleStatus = iota
	SubtitlesDisabled
	SubtitlesNoSource
	SubtitlesSourceMissing
	SubtitlesLoadFailed
)

func (s SubtitleStatus) String() string {
	switch s {
	case SubtitlesBuilt:
		return "built"
	case SubtitlesDisabled:
		return "disabled"
	case SubtitlesNoSource:
		return "no source"
	case SubtitlesSourceMissing:
		return "source missing"
	case SubtitlesLoadFailed:
		return "load failed"
	}
	return "unknown"
}

// RunFunc executes an assembled ffmpeg graph. Variable so tests can observe
// encode attempts without an ffmpeg binary.
type RunFunc func(*ffmpeg.Stream) error

func defaultRun(s *ffmpeg.Stream) error {
	return s.OverWriteOutput().ErrorToStdOut().Run()
}

// overlayClip is one positioned, time-bounded subtitle rendering
type overlayClip struct {
	clip   *media.Clip
	width  int
	height int
	y      int
	start  float64
	end    float64
}

// Result summarizes one composition run
type Result struct {
	SubtitleStatus SubtitleStatus
	OverlayCount   int
	AudioTracks    int
	Encoder        string
	UsedFallback   bool
}

// Composer owns the end-to-end pipeline for a single output file. It is not
// safe for concurrent use; every run assumes exclusive ownership of the
// handles it opens.
type Composer struct {
	opts    config.ComposeOptions
	style   config.SubtitleStyle
	volumes config.VolumeConfig
	log     zerolog.Logger

	probe    media.ProbeFunc
	run      RunFunc
	loadCues func(string) ([]subtitle.Cue, error)
	cues     []subtitle.Cue

	bundle *media.Bundle
}

// Option customizes a Composer, mainly for tests
type Option func(*Composer)

// WithProbe substitutes the ffprobe call
func WithProbe(p media.ProbeFunc) Option {
	return func(c *Composer) { c.probe = p }
}

// WithRunner substitutes the ffmpeg execution call
func WithRunner(r RunFunc) Option {
	return func(c *Composer) { c.run = r }
}

// WithCues supplies pre-parsed cues directly, bypassing the subtitle file
func WithCues(cues []subtitle.Cue) Option {
	return func(c *Composer) { c.cues = cues }
}

// New creates a Composer for one run
func New(opts config.ComposeOptions, style config.SubtitleStyle, volumes config.VolumeConfig, log zerolog.Logger, options ...Option) *Composer {
	c := &Composer{
		opts:     opts,
		style:    style,
		volumes:  volumes,
		log:      log,
		probe:    media.DefaultProbe,
		run:      defaultRun,
		loadCues: subtitle.LoadSRT,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Compose runs the pipeline: load video, build subtitle overlays, build the
// audio mix, composite, and encode with software fallback. Every handle
// opened along the way is released before it returns, on success or failure.
func (c *Composer) Compose() (*Result, error) {
	if _, err := os.Stat(c.opts.VideoPath); err != nil {
		return nil, errors.Wrapf(ErrVideoNotFound, "%s", c.opts.VideoPath)
	}

	bundle := media.NewBundle(c.probe, c.log)
	c.bundle = bundle
	defer bundle.Close()

	video, err := bundle.OpenVideo(c.opts.VideoPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load video")
	}
	c.log.Info().
		Str("path", c.opts.VideoPath).
		Float64("duration", video.Meta.Duration).
		Int("width", video.Meta.Width).
		Int("height", video.Meta.Height).
		Msg("loaded source video")

	placement := c.canvasPlacement(video)

	res := &Result{}
	overlays, status := c.buildSubtitles(bundle, video, placement)
	res.SubtitleStatus = status
	res.OverlayCount = len(overlays)

	plan := c.buildAudioMix(bundle, video)
	res.AudioTracks = len(plan.Entries)
	if len(plan.Entries) == 0 {
		c.log.Warn().Msg("audio mix is empty, output will be silent")
	}

	id := c.opts.Encoder
	if id == "" {
		id = encoder.Detect(c.log)
	}
	profile := encoder.ProfileFor(id)
	res.Encoder = profile.Encoder

	c.log.Info().Str("encoder", profile.Encoder).Str("vendor", string(profile.Vendor)).Msg("encoding output")
	if err := c.run(c.buildGraph(video, placement, overlays, plan, profile)); err != nil {
		c.log.Warn().Err(err).Str("encoder", profile.Encoder).Msg("encode failed, retrying with software fallback")

		fallback := encoder.Fallback()
		res.Encoder = fallback.Encoder
		res.UsedFallback = true
		if err := c.run(c.buildGraph(video, placement, overlays, plan, fallback)); err != nil {
			return nil, errors.Wrap(err, "fallback encode failed")
		}
	}

	c.log.Info().Str("output", c.opts.OutputPath).Str("encoder", res.Encoder).Msg("composition complete")
	return res, nil
}

// canvasPlacement returns the letterbox placement when a target canvas size
// is configured and differs from the source frame; nil means pass-through.
func (c *Composer) canvasPlacement(video *media.Clip) *layout.Placement {
	if c.opts.CanvasWidth <= 0 || c.opts.CanvasHeight <= 0 {
		return nil
	}
	if c.opts.CanvasWidth == video.Meta.Width && c.opts.CanvasHeight == video.Meta.Height {
		return nil
	}
	p := layout.FitToCanvas(video.Meta.Width, video.Meta.Height, c.opts.CanvasWidth, c.opts.CanvasHeight)
	c.log.Info().
		Int("scaled_width", p.ScaledWidth).
		Int("scaled_height", p.ScaledHeight).
		Bool("padded", p.Padded).
		Msg("fitting video to canvas")
	return &p
}

func (c *Composer) canvasSize(video *media.Clip, placement *layout.Placement) (int, int) {
	if placement != nil {
		return placement.TargetWidth, placement.TargetHeight
	}
	return video.Meta.Width, video.Meta.Height
}

// buildSubtitles renders one overlay clip per usable cue. A failure on one
// cue is logged and does not affect its siblings.
func (c *Composer) buildSubtitles(bundle *media.Bundle, video *media.Clip, placement *layout.Placement) ([]overlayClip, SubtitleStatus) {
	if !c.opts.SubtitleEnabled {
		c.log.Info().Msg("subtitles disabled, skipping subtitle stage")
		return nil, SubtitlesDisabled
	}
	if c.cues == nil && c.opts.SubtitlePath == "" {
		c.log.Info().Msg("no subtitle source supplied, skipping subtitle stage")
		return nil, SubtitlesNoSource
	}

	cues := c.cues
	if cues == nil {
		if _, err := os.Stat(c.opts.SubtitlePath); err != nil {
			c.log.Warn().Str("path", c.opts.SubtitlePath).Msg("subtitle file not found, skipping subtitle stage")
			return nil, SubtitlesSourceMissing
		}
		loaded, err := c.loadCues(c.opts.SubtitlePath)
		if err != nil {
			c.log.Warn().Err(err).Str("path", c.opts.SubtitlePath).Msg("failed to load subtitles, skipping subtitle stage")
			return nil, SubtitlesLoadFailed
		}
		cues = loaded
	}
	c.log.Info().Int("cues", len(cues)).Msg("building subtitle overlays")

	face := c.subtitleFace()
	canvasWidth, canvasHeight := c.canvasSize(video, placement)
	maxWidth := int(float64(canvasWidth) * config.SubtitleWidthRatio)
	position := layout.PositionRequest{
		Fraction: c.style.PositionFraction,
		Symbolic: c.style.Position,
	}

	var overlays []overlayClip
	for i, cue := range cues {
		text := cue.Normalized()
		if text == "" {
			c.log.Info().Int("cue", i+1).Msg("subtitle cue is empty, skipped")
			continue
		}

		wrapped, textHeight := layout.Wrap(text, maxWidth, face)
		y := layout.SubtitleY(position, canvasHeight, textHeight)

		dir, err := bundle.TempDir(config.TempDirPrefix)
		if err != nil {
			c.log.Error().Err(err).Int("cue", i+1).Msg("failed to build subtitle overlay")
			continue
		}
		dest := filepath.Join(dir, fmt.Sprintf("cue_%03d.png", i+1))
		w, h, err := subtitle.Render(wrapped, face, c.style, dest)
		if err != nil {
			c.log.Error().Err(err).Int("cue", i+1).Msg("failed to build subtitle overlay")
			continue
		}

		overlays = append(overlays, overlayClip{
			clip:   bundle.AddBuffer(dest),
			width:  w,
			height: h,
			y:      y,
			start:  cue.Start,
			end:    cue.End,
		})
	}

	c.log.Info().Int("overlays", len(overlays)).Int("cues", len(cues)).Msg("subtitle overlays built")
	return overlays, SubtitlesBuilt
}

// subtitleFace loads the styled font, degrading to the built-in face when
// the font file is missing or unreadable.
func (c *Composer) subtitleFace() font.Face {
	if c.style.FontPath == "" {
		c.log.Debug().Msg("no font configured, using built-in face")
		return basicfont.Face7x13
	}
	face, err := layout.LoadFace(c.style.FontPath, c.style.FontSize)
	if err != nil {
		c.log.Warn().Err(err).Str("font", c.style.FontPath).Msg("font not available, using built-in face")
		return basicfont.Face7x13
	}
	return face
}

// buildAudioMix assembles the mix plan in order: embedded original audio,
// looped background music, narration. A role with no usable source is
// omitted from the mix entirely.
func (c *Composer) buildAudioMix(bundle *media.Bundle, video *media.Clip) *MixPlan {
	plan := &MixPlan{}

	if video.Meta.HasAudio {
		c.log.Info().Float64("gain", c.volumes.Original).Msg("adding original audio")
		plan.add(MixEntry{Role: "original", Gain: c.volumes.Original})
	} else {
		c.log.Warn().Msg("video has no embedded audio track")
	}

	if c.opts.BGMPath != "" {
		bgm, err := bundle.OpenAudio(c.opts.BGMPath)
		if err != nil {
			c.log.Warn().Err(err).Str("path", c.opts.BGMPath).Msg("failed to load background music, skipped")
		} else {
			loops := LoopCount(bgm.Meta.Duration, video.Meta.Duration)
			c.log.Info().
				Float64("gain", c.volumes.BGM).
				Int("loops", loops).
				Msg("adding background music")
			plan.add(MixEntry{
				Role:      "bgm",
				Source:    c.opts.BGMPath,
				Gain:      c.volumes.BGM,
				LoopCount: loops,
				TrimTo:    video.Meta.Duration,
			})
		}
	}

	if c.opts.NarrationPath != "" {
		if _, err := bundle.OpenAudio(c.opts.NarrationPath); err != nil {
			c.log.Warn().Err(err).Str("path", c.opts.NarrationPath).Msg("failed to load narration, skipped")
		} else {
			c.log.Info().Float64("gain", c.volumes.Narration).Msg("adding narration")
			plan.add(MixEntry{
				Role:   "narration",
				Source: c.opts.NarrationPath,
				Gain:   c.volumes.Narration,
			})
		}
	}

	return plan
}

// buildGraph assembles the complete ffmpeg graph for one encode attempt.
// Called once per attempt so the fallback retry gets a fresh graph.
func (c *Composer) buildGraph(video *media.Clip, placement *layout.Placement, overlays []overlayClip, plan *MixPlan, profile encoder.Profile) *ffmpeg.Stream {
	input := ffmpeg.Input(c.opts.VideoPath)
	v := input.Get("v")

	if placement != nil {
		v = v.Filter("scale", ffmpeg.Args{
			fmt.Sprintf("%d:%d", placement.ScaledWidth, placement.ScaledHeight),
		})
		if placement.Padded {
			v = v.Filter("pad", ffmpeg.Args{
				fmt.Sprintf("%d:%d:%d:%d", placement.TargetWidth, placement.TargetHeight, placement.OffsetX, placement.OffsetY),
			}, ffmpeg.KwArgs{
				"color": "black",
			})
		}
	}

	for _, ov := range overlays {
		v = ffmpeg.Filter([]*ffmpeg.Stream{v, ffmpeg.Input(ov.clip.Path)}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":      layout.XCenter,
			"y":      ov.y,
			"enable": fmt.Sprintf("between(t,%g,%g)", ov.start, ov.end),
		})
	}

	outputKwargs := ffmpeg.KwArgs{
		"c:v":      profile.Encoder,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
	if video.Meta.FPS > 0 {
		outputKwargs["r"] = video.Meta.FPS
	}
	for k, val := range profile.Params {
		outputKwargs[k] = val
	}

	audioStreams := plan.streams(input)
	if len(audioStreams) == 0 {
		return v.Output(c.opts.OutputPath, outputKwargs)
	}

	outputKwargs["c:a"] = "aac"
	mixed := mixStreams(audioStreams)
	return ffmpeg.Output([]*ffmpeg.Stream{v, mixed}, c.opts.OutputPath, outputKwargs)
}
