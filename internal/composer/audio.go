package composer

import (
	"fmt"
	"math"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MixEntry is one audio layer in the final mix. An empty Source means the
// base video's embedded audio track.
type MixEntry struct {
	Role      string
	Source    string
	Gain      float64
	LoopCount int     // extra whole repeats of the source
	TrimTo    float64 // seconds; 0 means no trim
}

// MixPlan is the ordered set of audio layers attached to the output. Layers
// are summed as-is: gains are applied exactly as configured with no loudness
// normalization or clipping protection, so callers must pre-balance volumes.
type MixPlan struct {
	Entries []MixEntry
}

func (p *MixPlan) add(e MixEntry) {
	p.Entries = append(p.Entries, e)
}

// LoopCount returns how many extra hard-cut repeats of a source are needed
// so total coverage reaches targetDuration. Zero when the source already
// covers the target (truncation handles the rest).
func LoopCount(srcDuration, targetDuration float64) int {
	if srcDuration <= 0 || targetDuration <= srcDuration {
		return 0
	}
	return int(math.Ceil(targetDuration/srcDuration)) - 1
}

// streams realizes the plan as ffmpeg filter chains. The base video input
// is shared with the video side of the graph.
func (p *MixPlan) streams(videoInput *ffmpeg.Stream) []*ffmpeg.Stream {
	out := make([]*ffmpeg.Stream, 0, len(p.Entries))
	for _, e := range p.Entries {
		var s *ffmpeg.Stream
		if e.Source == "" {
			s = videoInput.Get("a")
		} else {
			kwargs := ffmpeg.KwArgs{}
			if e.LoopCount > 0 {
				kwargs["stream_loop"] = e.LoopCount
			}
			s = ffmpeg.Input(e.Source, kwargs).Get("a")
		}
		if e.TrimTo > 0 {
			s = s.Filter("atrim", ffmpeg.Args{fmt.Sprintf("0:%g", e.TrimTo)})
		}
		s = s.Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", e.Gain)})
		out = append(out, s)
	}
	return out
}

// mixStreams sums the layers into a single track
func mixStreams(streams []*ffmpeg.Stream) *ffmpeg.Stream {
	if len(streams) == 1 {
		return streams[0]
	}
	return ffmpeg.Filter(streams, "amix", ffmpeg.Args{
		fmt.Sprintf("inputs=%d", len(streams)),
		"duration=first",
		"dropout_transition=0",
		"normalize=0",
	})
}
