package media

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Bundle owns every media handle opened during one composition run and
// guarantees each is released exactly once, whichever stage the run ends in.
type Bundle struct {
	probe   ProbeFunc
	log     zerolog.Logger
	clips   []*Clip
	tempDir string
	closed  bool
}

// NewBundle creates an empty resource bundle
func NewBundle(probe ProbeFunc, log zerolog.Logger) *Bundle {
	if probe == nil {
		probe = DefaultProbe
	}
	return &Bundle{probe: probe, log: log}
}

// OpenVideo probes a video file and tracks the resulting clip
func (b *Bundle) OpenVideo(path string) (*Clip, error) {
	meta, err := ProbeVideo(b.probe, path)
	if err != nil {
		return nil, err
	}
	return b.track(&Clip{Path: path, Meta: meta}), nil
}

// OpenAudio probes an audio file and tracks the resulting clip
func (b *Bundle) OpenAudio(path string) (*Clip, error) {
	meta, err := ProbeAudio(b.probe, path)
	if err != nil {
		return nil, err
	}
	return b.track(&Clip{Path: path, Meta: meta}), nil
}

// AddBuffer tracks an owned render buffer file as a clip; the file is
// removed when the clip is released.
func (b *Bundle) AddBuffer(path string) *Clip {
	return b.track(&Clip{Path: path, buffer: path})
}

// TempDir lazily creates the run-local scratch directory for render buffers
func (b *Bundle) TempDir(prefix string) (string, error) {
	if b.tempDir != "" {
		return b.tempDir, nil
	}
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp directory")
	}
	b.tempDir = dir
	return dir, nil
}

func (b *Bundle) track(c *Clip) *Clip {
	b.clips = append(b.clips, c)
	return c
}

// OpenCount returns the number of clips ever tracked by the bundle
func (b *Bundle) OpenCount() int {
	return len(b.clips)
}

// ClosedCount returns the number of tracked clips that have been released
func (b *Bundle) ClosedCount() int {
	n := 0
	for _, c := range b.clips {
		if c.Closed() {
			n++
		}
	}
	return n
}

// Close releases every tracked clip and removes the scratch directory.
// Calling it more than once is safe; clips already closed stay closed.
func (b *Bundle) Close() {
	if b.closed {
		return
	}
	b.closed = true

	for _, c := range b.clips {
		if err := c.Close(); err != nil {
			b.log.Warn().Err(err).Str("path", c.Path).Msg("failed to release clip")
		}
	}
	if b.tempDir != "" {
		if err := os.RemoveAll(b.tempDir); err != nil {
			b.log.Warn().Err(err).Str("dir", b.tempDir).Msg("failed to remove temp directory")
		}
	}
}
