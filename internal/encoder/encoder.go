package encoder

import (
	"sort"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/exp/maps"

	"github.com/clipforge/video-composer/pkg/types"
)

// SoftwareEncoder is the guaranteed-available baseline encoder
const SoftwareEncoder = "libx264"

// Profile is a resolved encoder identifier plus its codec parameter preset
type Profile struct {
	Encoder string
	Vendor  types.EncoderVendor
	Params  ffmpeg.KwArgs
}

// vendorTokens maps identifier substrings to the hardware family they imply
var vendorTokens = map[string]types.EncoderVendor{
	"nvenc":        types.EncoderVendorNvidia,
	"cuda":         types.EncoderVendorNvidia,
	"videotoolbox": types.EncoderVendorApple,
	"qsv":          types.EncoderVendorIntel,
	"vaapi":        types.EncoderVendorVAAPI,
	"amf":          types.EncoderVendorAMD,
}

var vendorParams = map[types.EncoderVendor]ffmpeg.KwArgs{
	types.EncoderVendorNvidia:   {"preset": "medium", "profile:v": "high"},
	types.EncoderVendorApple:    {"profile:v": "high"},
	types.EncoderVendorIntel:    {"preset": "medium"},
	types.EncoderVendorVAAPI:    {"profile": 100},
	types.EncoderVendorAMD:      {},
	types.EncoderVendorSoftware: {"preset": "medium", "crf": 23},
}

// Classify maps an externally-supplied encoder identifier to its vendor.
// Identifiers with no known hardware token classify as software.
func Classify(id string) types.EncoderVendor {
	id = strings.ToLower(id)
	for token, vendor := range vendorTokens {
		if strings.Contains(id, token) {
			return vendor
		}
	}
	return types.EncoderVendorSoftware
}

// ProfileFor resolves an encoder identifier to its parameter preset. An
// empty identifier yields the software profile; an identifier with no known
// hardware token is kept as the codec, with no preset attached.
func ProfileFor(id string) Profile {
	if id == "" || id == SoftwareEncoder {
		return Fallback()
	}
	vendor := Classify(id)
	if vendor == types.EncoderVendorSoftware {
		return Profile{Encoder: id, Vendor: vendor}
	}
	return Profile{Encoder: id, Vendor: vendor, Params: vendorParams[vendor]}
}

// Fallback returns the software CRF profile used when hardware encoding
// fails or is unavailable.
func Fallback() Profile {
	return Profile{
		Encoder: SoftwareEncoder,
		Vendor:  types.EncoderVendorSoftware,
		Params:  vendorParams[types.EncoderVendorSoftware],
	}
}

// Vendors returns the supported vendor names
func Vendors() []string {
	vendors := maps.Keys(vendorParams)
	names := make([]string, 0, len(vendors))
	for _, v := range vendors {
		names = append(names, string(v))
	}
	sort.Strings(names)
	return names
}
