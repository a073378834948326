package types

// SubtitlePosition is a symbolic vertical placement for subtitle overlays.
type SubtitlePosition string

const (
	SubtitlePositionTop    SubtitlePosition = "top"
	SubtitlePositionCenter SubtitlePosition = "center"
	SubtitlePositionBottom SubtitlePosition = "bottom"
)

// EncoderVendor identifies the hardware family behind an encoder identifier.
type EncoderVendor string

const (
	EncoderVendorNvidia   EncoderVendor = "nvidia"
	EncoderVendorApple    EncoderVendor = "apple"
	EncoderVendorIntel    EncoderVendor = "intel"
	EncoderVendorVAAPI    EncoderVendor = "vaapi"
	EncoderVendorAMD      EncoderVendor = "amd"
	EncoderVendorSoftware EncoderVendor = "software"
)
