package media

import (
	"sort"
	"strings"
)

// Codec is a convert target: the canonical name, the container extension the
// output receives, and whether it is a video codec.
type Codec struct {
	Name      string
	Extension string
	Video     bool
}

var codecs = map[string]Codec{
	"opus":   {Name: "opus", Extension: ".opus"},
	"mp3":    {Name: "mp3", Extension: ".mp3"},
	"aac":    {Name: "aac", Extension: ".m4a"},
	"flac":   {Name: "flac", Extension: ".flac"},
	"vorbis": {Name: "vorbis", Extension: ".ogg"},
	"wav":    {Name: "wav", Extension: ".wav"},
	"av1":    {Name: "av1", Extension: ".mkv", Video: true},
	"hevc":   {Name: "hevc", Extension: ".mkv", Video: true},
	"h264":   {Name: "h264", Extension: ".mp4", Video: true},
}

var codecAliases = map[string]string{
	"ogg":  "vorbis",
	"m4a":  "aac",
	"h265": "hevc",
	"x265": "hevc",
	"x264": "h264",
	"avc":  "h264",
}

// LookupCodec resolves a codec name or alias, case-insensitively.
func LookupCodec(name string) (Codec, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := codecAliases[key]; ok {
		key = alias
	}
	codec, ok := codecs[key]
	return codec, ok
}

// CodecNames returns the canonical codec names, sorted.
func CodecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Output subtree names written by each operation.
const (
	CompressedDir   = "compressed"
	UncompressedDir = "uncompressed"
	ConvertedDir    = "converted"
)

// ConvertedDirFor returns the subtree name for converted output of codec.
func ConvertedDirFor(codec string) string {
	return ConvertedDir + "_" + strings.ToLower(codec)
}

// OutputDirNames lists every subtree name mediasweep writes, including one
// converted_<codec> per known codec.
func OutputDirNames() []string {
	names := []string{CompressedDir, UncompressedDir, ConvertedDir}
	for _, codec := range CodecNames() {
		names = append(names, ConvertedDirFor(codec))
	}
	return names
}
