package encoder

import (
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// listEncoders shells out to ffmpeg for its compiled-in encoder list.
// Variable so tests can substitute canned output.
var listEncoders = func() (string, error) {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	return string(out), err
}

// hardwarePriority orders the h264 hardware encoders from most to least
// preferred when several are compiled in.
var hardwarePriority = []string{
	"h264_nvenc",
	"h264_videotoolbox",
	"h264_qsv",
	"h264_vaapi",
	"h264_amf",
}

// Detect probes the local ffmpeg build and returns the best available
// encoder identifier. Any probe failure degrades to the software encoder.
func Detect(log zerolog.Logger) string {
	out, err := listEncoders()
	if err != nil {
		log.Warn().Err(err).Msg("encoder probe failed, using software encoder")
		return SoftwareEncoder
	}

	for _, name := range hardwarePriority {
		if strings.Contains(out, name) {
			log.Info().Str("encoder", name).Msg("hardware encoder available")
			return name
		}
	}

	log.Info().Str("encoder", SoftwareEncoder).Msg("no hardware encoder found")
	return SoftwareEncoder
}
