package common

func CodecToFileExtension(codec string) string {
	switch NormalizeCodec(codec) {
	case "MP4V", "H264", "AVC1":
		return ".mp4"
	default:
		// XVID and MJPG are stored in AVI containers, as are unknown codecs
		return ".avi"
	}
}
