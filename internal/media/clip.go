package media

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeFunc returns ffprobe JSON output for a media file. It exists so the
// pipeline can be exercised without an ffprobe binary installed.
type ProbeFunc func(path string) (string, error)

// DefaultProbe probes via ffprobe
func DefaultProbe(path string) (string, error) {
	return ffmpeg.Probe(path)
}

// Metadata contains metadata about a media file
type Metadata struct {
	Duration float64
	Width    int
	Height   int
	FPS      float64
	Codec    string
	HasAudio bool
}

// Clip is an opened media resource. Release buffers through Close; closing
// twice is a no-op.
type Clip struct {
	Path string
	Meta *Metadata

	// buffer is an owned on-disk render buffer (overlay PNGs) removed on
	// Close. Empty for plain media files.
	buffer string

	closed bool
}

// Close releases the clip. It is safe to call more than once.
func (c *Clip) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.buffer != "" {
		return os.Remove(c.buffer)
	}
	return nil
}

// Closed reports whether the clip has been released
func (c *Clip) Closed() bool {
	return c.closed
}

// ProbeVideo opens video metadata at path, requiring a video stream.
func ProbeVideo(probe ProbeFunc, path string) (*Metadata, error) {
	data, err := probeJSON(probe, path)
	if err != nil {
		return nil, err
	}

	videoStream := findStream(data, "video")
	if videoStream == nil {
		return nil, fmt.Errorf("no video stream found in %s", path)
	}

	duration := extractDuration(data, videoStream)
	if duration == 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}

	width, _ := videoStream["width"].(float64)
	height, _ := videoStream["height"].(float64)
	codec, _ := videoStream["codec_name"].(string)

	return &Metadata{
		Duration: duration,
		Width:    int(width),
		Height:   int(height),
		FPS:      extractFrameRate(videoStream),
		Codec:    codec,
		HasAudio: findStream(data, "audio") != nil,
	}, nil
}

// ProbeAudio opens audio metadata at path, requiring an audio stream.
func ProbeAudio(probe ProbeFunc, path string) (*Metadata, error) {
	data, err := probeJSON(probe, path)
	if err != nil {
		return nil, err
	}

	audioStream := findStream(data, "audio")
	if audioStream == nil {
		return nil, fmt.Errorf("no audio stream found in %s", path)
	}

	duration := extractDuration(data, audioStream)
	if duration == 0 {
		return nil, fmt.Errorf("could not determine audio duration")
	}

	codec, _ := audioStream["codec_name"].(string)

	return &Metadata{
		Duration: duration,
		Codec:    codec,
		HasAudio: true,
	}, nil
}

func probeJSON(probe ProbeFunc, path string) (map[string]interface{}, error) {
	out, err := probe(path)
	if err != nil {
		return nil, fmt.Errorf("error probing %s: %v", path, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func findStream(data map[string]interface{}, codecType string) map[string]interface{} {
	streams, ok := data["streams"].([]interface{})
	if !ok {
		return nil
	}
	for _, stream := range streams {
		s, ok := stream.(map[string]interface{})
		if !ok {
			continue
		}
		if ct, _ := s["codec_type"].(string); ct == codecType {
			return s
		}
	}
	return nil
}

// extractDuration tries the stream duration first, then the container
// duration, then derives one from the frame count and frame rate.
func extractDuration(data, stream map[string]interface{}) float64 {
	var duration float64

	if durationStr, ok := stream["duration"].(string); ok {
		if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
			duration = d
		}
	}

	if duration == 0 {
		if format, ok := data["format"].(map[string]interface{}); ok {
			if durationStr, ok := format["duration"].(string); ok {
				if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
					duration = d
				}
			}
		}
	}

	if duration == 0 {
		if nbFrames, ok := stream["nb_frames"].(string); ok {
			if frames, err := strconv.ParseFloat(nbFrames, 64); err == nil {
				if rate := extractFrameRate(stream); rate > 0 {
					duration = frames / rate
				}
			}
		}
	}

	return duration
}

func extractFrameRate(stream map[string]interface{}) float64 {
	rFrameRate, ok := stream["r_frame_rate"].(string)
	if !ok {
		return 0
	}
	nums := strings.Split(rFrameRate, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
