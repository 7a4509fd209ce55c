package ffmpeg

import (
	"mediasweep/internal/capability"
	"mediasweep/internal/media"
)

type codecArgs struct {
	encoder string
	args    []string
}

// Quality settings per target. Audio targets map only audio streams so cover
// art does not break containers that cannot carry it.
var codecTable = map[string]codecArgs{
	"opus":   {encoder: "libopus", args: []string{"-b:a", "128k", "-vbr", "on", "-compression_level", "10"}},
	"mp3":    {encoder: "libmp3lame", args: []string{"-q:a", "2"}},
	"aac":    {encoder: "aac", args: []string{"-b:a", "192k"}},
	"flac":   {encoder: "flac", args: []string{"-compression_level", "8"}},
	"vorbis": {encoder: "libvorbis", args: []string{"-q:a", "5"}},
	"wav":    {encoder: "pcm_s16le"},
	"av1":    {encoder: "libsvtav1", args: []string{"-crf", "30", "-preset", "6", "-c:a", "libopus", "-b:a", "128k"}},
	"hevc":   {encoder: "libx265", args: []string{"-crf", "22", "-preset", "medium", "-c:a", "copy"}},
	"h264":   {encoder: "libx264", args: []string{"-crf", "20", "-preset", "medium", "-c:a", "aac", "-b:a", "192k"}},
}

// Params returns the encoder parameters for a codec name or alias.
func Params(name string) (capability.CodecParams, bool) {
	codec, ok := media.LookupCodec(name)
	if !ok {
		return capability.CodecParams{}, false
	}
	entry, ok := codecTable[codec.Name]
	if !ok {
		return capability.CodecParams{}, false
	}
	return capability.CodecParams{
		Name:      codec.Name,
		Encoder:   entry.encoder,
		Extension: codec.Extension,
		Video:     codec.Video,
		Args:      append([]string(nil), entry.args...),
	}, true
}

func streamArgs(codec capability.CodecParams) []string {
	if codec.Video {
		return []string{"-map", "0:v:0", "-map", "0:a?", "-c:v", codec.Encoder}
	}
	return []string{"-map", "0:a", "-c:a", codec.Encoder}
}

func metadataArgs(meta capability.MetadataParams) []string {
	switch meta.Mode {
	case capability.MetadataDrop:
		return []string{"-map_metadata", "-1"}
	case capability.MetadataDropOnly:
		args := []string{"-map_metadata", "0"}
		for _, key := range meta.Drop {
			args = append(args, "-metadata", key+"=")
		}
		return args
	default:
		return []string{"-map_metadata", "0"}
	}
}
