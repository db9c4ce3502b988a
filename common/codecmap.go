package common

import (
	"fmt"
	"strings"
)

const (
	// PrimaryCodec is tried first for every recording
	PrimaryCodec = "XVID"
	// FallbackCodec is broadly available in OpenCV builds and is tried when the primary fails
	FallbackCodec = "MJPG"
)

// CodecFallbackMap defines, per requested four-character code, the ordered list of
// codecs to try when opening a video writer. Each chain holds at most one fallback.
var CodecFallbackMap = map[string][]string{
	"XVID": {"XVID", FallbackCodec},
	"MP4V": {"MP4V", FallbackCodec},
	"H264": {"H264", FallbackCodec},
	"MJPG": {FallbackCodec},
}

// NormalizeCodec upper-cases and trims a four-character code
func NormalizeCodec(codec string) string {
	return strings.ToUpper(strings.TrimSpace(codec))
}

// ValidateCodec checks that codec is a four-character code
func ValidateCodec(codec string) error {
	codec = NormalizeCodec(codec)
	if len(codec) != 4 {
		return fmt.Errorf("codec '%s' is not a four-character code", codec)
	}
	return nil
}

// CodecChain returns the codecs to try, in order, for the requested codec.
// Codecs without a defined chain fall back to FallbackCodec. An empty request
// selects the chain of PrimaryCodec.
func CodecChain(requested string) []string {
	requested = NormalizeCodec(requested)
	if requested == "" {
		requested = PrimaryCodec
	}

	if chain, ok := CodecFallbackMap[requested]; ok {
		// Return a copy so callers cannot modify the map
		result := make([]string, len(chain))
		copy(result, chain)
		return result
	}

	if requested == FallbackCodec {
		return []string{FallbackCodec}
	}
	return []string{requested, FallbackCodec}
}
