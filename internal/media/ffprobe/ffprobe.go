package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"mediasweep/internal/capability"
)

// Result is the subset of `ffprobe -show_format -show_streams` output the
// prober reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one demuxed stream. Numeric fields stay strings because ffprobe
// reports "N/A" for values it cannot determine.
type Stream struct {
	CodecName   string      `json:"codec_name"`
	CodecType   string      `json:"codec_type"`
	Duration    string      `json:"duration"`
	BitRate     string      `json:"bit_rate"`
	SampleRate  string      `json:"sample_rate"`
	Disposition Disposition `json:"disposition"`
}

// Disposition carries the stream flags mediasweep cares about.
type Disposition struct {
	AttachedPic int `json:"attached_pic"`
}

// Format is the container section.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Inspect runs binary against path and decodes its JSON. stderr is kept
// apart from the JSON on stdout and only surfaces in errors.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if detail := capability.Tail(stderr.Bytes(), 3); detail != "" {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, detail)
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return parse(stdout.Bytes())
}

func parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if len(result.Streams) == 0 && result.Format.FormatName == "" {
		return Result{}, errors.New("ffprobe parse: no streams or format reported")
	}
	return result, nil
}

func (s Stream) isPicture() bool { return s.Disposition.AttachedPic != 0 }

func (s Stream) is(kind string) bool { return strings.EqualFold(s.CodecType, kind) }

// VideoStreamCount counts video streams other than embedded cover art.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, s := range r.Streams {
		if s.is("video") && !s.isPicture() {
			count++
		}
	}
	return count
}

// PrimaryStream is the first real video stream, else the first audio stream.
func (r Result) PrimaryStream() (Stream, bool) {
	for _, kind := range []string{"video", "audio"} {
		for _, s := range r.Streams {
			if s.is(kind) && !s.isPicture() {
				return s, true
			}
		}
	}
	return Stream{}, false
}

// DurationSeconds is the container duration, falling back to the primary
// stream. 0 when absent, NaN when present but unparsable.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d != 0 {
		return d
	}
	if s, ok := r.PrimaryStream(); ok {
		return parseFloat(s.Duration)
	}
	return 0
}

// BitRate is the container bitrate in bits per second, falling back to the
// primary stream. 0 when neither is usable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if !(rate > 0) {
		if s, ok := r.PrimaryStream(); ok {
			rate = parseFloat(s.BitRate)
		}
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return 0
	}
	return int64(rate)
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}
