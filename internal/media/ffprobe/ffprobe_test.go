package ffprobe

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"mediasweep/internal/services"
	"mediasweep/internal/testsupport"
)

func TestParseContainerFields(t *testing.T) {
	result, err := parse([]byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "disposition": {"attached_pic": 0}},
			{"codec_type": "audio", "codec_name": "aac"}
		],
		"format": {"format_name": "mov,mp4", "duration": "123.45", "bit_rate": "32000"}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if stream, _ := result.PrimaryStream(); stream.CodecName != "h264" {
		t.Fatalf("expected h264 primary stream, got %+v", stream)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestParseRejectsEmptyReport(t *testing.T) {
	if _, err := parse([]byte(`{}`)); err == nil {
		t.Fatal("expected error for a report without streams or format")
	}
	if _, err := parse([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "N/A"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestPrimaryStreamSkipsCoverArt(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "mjpeg", Disposition: Disposition{AttachedPic: 1}},
			{CodecType: "audio", CodecName: "flac", BitRate: "900000", Duration: "60"},
		},
	}
	stream, ok := result.PrimaryStream()
	if !ok || stream.CodecName != "flac" {
		t.Fatalf("expected flac primary stream, got %+v", stream)
	}
	if result.VideoStreamCount() != 0 {
		t.Fatalf("cover art should not count as video")
	}
	if result.BitRate() != 900000 {
		t.Fatalf("expected stream bitrate fallback, got %d", result.BitRate())
	}
	if result.DurationSeconds() != 60 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestFactsFromDropsUnparsableDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", CodecName: "mp3", SampleRate: "44100"}},
		Format:  Format{FormatName: "mp3", Duration: "bad", BitRate: "128000"},
	}
	facts := FactsFrom(result, 4096)
	if facts.DurationSeconds != 0 {
		t.Fatalf("expected duration 0, got %v", facts.DurationSeconds)
	}
	if facts.Codec != "mp3" || facts.SampleRate != 44100 || facts.Container != "mp3" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
	if facts.SizeBytes != 4096 || facts.BitRate != 128000 {
		t.Fatalf("unexpected size/bitrate: %+v", facts)
	}
}

func TestProberUsesFilesystemSize(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "track.flac")
	testsupport.WriteFile(t, media, 2048)
	payload := `{"streams":[{"codec_type":"audio","codec_name":"flac","sample_rate":"48000"}],"format":{"format_name":"flac","duration":"10","size":"99","bit_rate":"1000"}}`
	bin := testsupport.WriteScript(t, filepath.Join(dir, "bin"), "ffprobe", "cat <<'JSON'\n"+payload+"\nJSON\n")

	prober := NewProber(bin)
	if err := prober.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	facts, err := prober.Probe(context.Background(), media)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if facts.SizeBytes != 2048 {
		t.Fatalf("expected on-disk size 2048, got %d", facts.SizeBytes)
	}
	if facts.DurationSeconds != 10 || facts.BitRate != 1000 || facts.SampleRate != 48000 {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestProberFailureIsValidationError(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "broken.mp3")
	testsupport.WriteFile(t, media, 10)
	bin := testsupport.WriteScript(t, filepath.Join(dir, "bin"), "ffprobe", "echo 'Invalid data found' >&2\nexit 1\n")

	_, err := NewProber(bin).Probe(context.Background(), media)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProberCheckMissingBinary(t *testing.T) {
	err := NewProber(filepath.Join(t.TempDir(), "missing-ffprobe")).Check()
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
