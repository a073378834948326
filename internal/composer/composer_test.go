package composer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/clipforge/video-composer/internal/config"
	"github.com/clipforge/video-composer/internal/media"
	"github.com/clipforge/video-composer/internal/subtitle"
)

const videoJSON = `{
	"streams": [
		{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
		 "duration": "10.0", "r_frame_rate": "30/1"},
		{"codec_type": "audio", "codec_name": "aac", "duration": "10.0"}
	],
	"format": {"duration": "10.0"}
}`

const silentVideoJSON = `{
	"streams": [
		{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
		 "duration": "10.0", "r_frame_rate": "30/1"}
	],
	"format": {"duration": "10.0"}
}`

const bgmJSON = `{
	"streams": [{"codec_type": "audio", "codec_name": "mp3", "duration": "4.0"}],
	"format": {"duration": "4.0"}
}`

const narrationJSON = `{
	"streams": [{"codec_type": "audio", "codec_name": "mp3", "duration": "6.0"}],
	"format": {"duration": "6.0"}
}`

// testProbe routes canned ffprobe output by file name
func testProbe(videoOut string) media.ProbeFunc {
	return func(path string) (string, error) {
		switch {
		case strings.Contains(path, "bgm"):
			return bgmJSON, nil
		case strings.Contains(path, "narration"):
			return narrationJSON, nil
		case strings.Contains(path, "broken"):
			return "", fmt.Errorf("probe failed")
		default:
			return videoOut, nil
		}
	}
}

func writeDummy(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0644))
	return path
}

func countingRunner(calls *int, failFirst bool) RunFunc {
	return func(s *ffmpeg.Stream) error {
		*calls++
		if failFirst && *calls == 1 {
			return fmt.Errorf("encoder rejected input")
		}
		return nil
	}
}

func testOptions(t *testing.T) config.ComposeOptions {
	t.Helper()
	return config.ComposeOptions{
		VideoPath:  writeDummy(t, "input.mp4"),
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		Encoder:    "libx264",
	}
}

func TestComposeSilentVideoSucceeds(t *testing.T) {
	opts := testOptions(t)
	calls := 0

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(silentVideoJSON)),
		WithRunner(countingRunner(&calls, false)),
	)

	res, err := c.Compose()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, SubtitlesDisabled, res.SubtitleStatus)
	assert.Equal(t, 0, res.OverlayCount)
	assert.Equal(t, 0, res.AudioTracks)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, c.bundle.OpenCount(), c.bundle.ClosedCount())
}

func TestComposeDropsEmptyCue(t *testing.T) {
	opts := testOptions(t)
	opts.SubtitleEnabled = true
	calls := 0

	cues := []subtitle.Cue{
		{Start: 0, End: 2, Text: "hi"},
		{Start: 2, End: 4, Text: ""},
	}

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(countingRunner(&calls, false)),
		WithCues(cues),
	)

	res, err := c.Compose()
	require.NoError(t, err)

	assert.Equal(t, SubtitlesBuilt, res.SubtitleStatus)
	assert.Equal(t, 1, res.OverlayCount)
	assert.Equal(t, c.bundle.OpenCount(), c.bundle.ClosedCount())
}

func TestComposeFallbackRetriesExactlyOnce(t *testing.T) {
	opts := testOptions(t)
	opts.Encoder = "h264_nvenc"
	calls := 0

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(countingRunner(&calls, true)),
	)

	res, err := c.Compose()
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, "libx264", res.Encoder)
}

func TestComposeSecondEncodeFailureIsFatal(t *testing.T) {
	opts := testOptions(t)
	opts.Encoder = "h264_nvenc"
	opts.BGMPath = writeDummy(t, "bgm.mp3")
	calls := 0

	run := func(s *ffmpeg.Stream) error {
		calls++
		return fmt.Errorf("encoder rejected input")
	}

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(run),
	)

	_, err := c.Compose()
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	// every handle opened before the fatal encode error is released
	assert.GreaterOrEqual(t, c.bundle.OpenCount(), 2)
	assert.Equal(t, c.bundle.OpenCount(), c.bundle.ClosedCount())
}

func TestComposeMissingVideoIsFatal(t *testing.T) {
	opts := config.ComposeOptions{
		VideoPath:  filepath.Join(t.TempDir(), "missing.mp4"),
		OutputPath: "out.mp4",
		Encoder:    "libx264",
	}
	calls := 0

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(countingRunner(&calls, false)),
	)

	_, err := c.Compose()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVideoNotFound))
	assert.Equal(t, 0, calls)
}

func TestComposeSubtitleSkipReasonsAreDistinct(t *testing.T) {
	probe := testProbe(videoJSON)

	run := func(s *ffmpeg.Stream) error { return nil }

	// disabled
	opts := testOptions(t)
	opts.SubtitlePath = "whatever.srt"
	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(), WithProbe(probe), WithRunner(run))
	res, err := c.Compose()
	require.NoError(t, err)
	assert.Equal(t, SubtitlesDisabled, res.SubtitleStatus)

	// enabled, no source path
	opts = testOptions(t)
	opts.SubtitleEnabled = true
	c = New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(), WithProbe(probe), WithRunner(run))
	res, err = c.Compose()
	require.NoError(t, err)
	assert.Equal(t, SubtitlesNoSource, res.SubtitleStatus)

	// enabled, source path does not exist
	opts = testOptions(t)
	opts.SubtitleEnabled = true
	opts.SubtitlePath = filepath.Join(t.TempDir(), "missing.srt")
	c = New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(), WithProbe(probe), WithRunner(run))
	res, err = c.Compose()
	require.NoError(t, err)
	assert.Equal(t, SubtitlesSourceMissing, res.SubtitleStatus)
}

func TestComposeLoadsCuesFromFile(t *testing.T) {
	opts := testOptions(t)
	opts.SubtitleEnabled = true

	srt := filepath.Join(t.TempDir(), "subs.srt")
	require.NoError(t, os.WriteFile(srt, []byte("1\n00:00:00,000 --> 00:00:02,000\nHello\n"), 0644))
	opts.SubtitlePath = srt

	calls := 0
	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(countingRunner(&calls, false)),
	)

	res, err := c.Compose()
	require.NoError(t, err)
	assert.Equal(t, SubtitlesBuilt, res.SubtitleStatus)
	assert.Equal(t, 1, res.OverlayCount)
}

func TestComposeAudioMixOrderAndLooping(t *testing.T) {
	opts := testOptions(t)
	opts.BGMPath = "bgm.mp3"
	opts.NarrationPath = "narration.mp3"

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
	)

	bundle := media.NewBundle(testProbe(videoJSON), zerolog.Nop())
	defer bundle.Close()
	video, err := bundle.OpenVideo(opts.VideoPath)
	require.NoError(t, err)

	plan := c.buildAudioMix(bundle, video)
	require.Len(t, plan.Entries, 3)

	assert.Equal(t, "original", plan.Entries[0].Role)
	assert.Equal(t, 1.0, plan.Entries[0].Gain)

	bgm := plan.Entries[1]
	assert.Equal(t, "bgm", bgm.Role)
	assert.Equal(t, 0.3, bgm.Gain)
	assert.Equal(t, 2, bgm.LoopCount) // 4s source covering 10s
	assert.Equal(t, 10.0, bgm.TrimTo)

	assert.Equal(t, "narration", plan.Entries[2].Role)
	assert.Equal(t, 1.0, plan.Entries[2].Gain)
	assert.Equal(t, 0, plan.Entries[2].LoopCount)
}

func TestComposeUnreadableBGMIsRecoverable(t *testing.T) {
	opts := testOptions(t)
	opts.BGMPath = "broken.mp3"
	calls := 0

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(videoJSON)),
		WithRunner(countingRunner(&calls, false)),
	)

	res, err := c.Compose()
	require.NoError(t, err)
	assert.Equal(t, 1, res.AudioTracks) // original only
}

func TestComposeNoEmbeddedAudioOmitsOriginal(t *testing.T) {
	opts := testOptions(t)
	opts.NarrationPath = "narration.mp3"
	calls := 0

	c := New(opts, config.DefaultStyle(), config.DefaultVolumes(), zerolog.Nop(),
		WithProbe(testProbe(silentVideoJSON)),
		WithRunner(countingRunner(&calls, false)),
	)

	res, err := c.Compose()
	require.NoError(t, err)
	assert.Equal(t, 1, res.AudioTracks)
}

func TestLoopCount(t *testing.T) {
	cases := []struct {
		src, target float64
		want        int
	}{
		{10, 5, 0},   // longer source truncates, no repeats
		{10, 10, 0},  // exact fit
		{3, 10, 3},   // 4 plays cover 12s
		{2.5, 5, 1},  // 2 plays cover 5s
		{4, 10, 2},   // 3 plays cover 12s
		{0, 5, 0},    // degenerate source
		{1, 1000, 999},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LoopCount(tc.src, tc.target), "src=%v target=%v", tc.src, tc.target)
	}
}

func TestLoopCoverageAlwaysReachesTarget(t *testing.T) {
	durations := []float64{0.5, 1, 2.5, 3, 7, 9.99}
	targets := []float64{0.1, 1, 5, 10, 60, 601.5}
	for _, src := range durations {
		for _, target := range targets {
			n := LoopCount(src, target)
			if target > src {
				assert.GreaterOrEqual(t, float64(n+1)*src, target,
					"src=%v target=%v", src, target)
			} else {
				assert.Zero(t, n, "src=%v target=%v", src, target)
			}
		}
	}
}
