package ffprobe

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"mediasweep/internal/capability"
	"mediasweep/internal/services"
)

// Prober implements capability.Prober by shelling out to ffprobe.
type Prober struct {
	Binary string
}

// NewProber returns a Prober for binary, defaulting to "ffprobe".
func NewProber(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{Binary: binary}
}

// Check verifies the ffprobe binary can be located.
func (p *Prober) Check() error {
	if _, err := exec.LookPath(p.Binary); err != nil {
		return services.Wrap(services.ErrToolUnavailable, "ffprobe", "lookup", fmt.Sprintf("binary %q not found", p.Binary), err)
	}
	return nil
}

// Probe inspects file and returns its facts. The size always comes from the
// filesystem. Any failure to run or parse ffprobe is a validation error.
func (p *Prober) Probe(ctx context.Context, file string) (capability.ProbedFacts, error) {
	info, err := os.Stat(file)
	if err != nil {
		return capability.ProbedFacts{}, services.Wrap(services.ErrIO, "ffprobe", "stat", file, err)
	}
	result, err := Inspect(ctx, p.Binary, file)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return capability.ProbedFacts{}, ctxErr
		}
		return capability.ProbedFacts{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", file, err)
	}
	return FactsFrom(result, info.Size()), nil
}

// FactsFrom converts a Result into ProbedFacts. Unparsable numbers become 0.
func FactsFrom(result Result, size int64) capability.ProbedFacts {
	facts := capability.ProbedFacts{
		Container: strings.TrimSpace(result.Format.FormatName),
		BitRate:   result.BitRate(),
		SizeBytes: size,
		HasVideo:  result.VideoStreamCount() > 0,
	}
	if duration := result.DurationSeconds(); !math.IsNaN(duration) && duration > 0 {
		facts.DurationSeconds = duration
	}
	if stream, ok := result.PrimaryStream(); ok {
		facts.Codec = stream.CodecName
		if rate, err := strconv.Atoi(strings.TrimSpace(stream.SampleRate)); err == nil {
			facts.SampleRate = rate
		}
	}
	return facts
}
