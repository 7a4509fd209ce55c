// Package classify flags media files whose on-disk size disagrees with what
// their declared duration and bitrate predict.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"mediasweep/internal/capability"
)

// Class is the verdict category.
type Class string

const (
	Normal    Class = "normal"
	Weird     Class = "weird"
	Corrupted Class = "corrupted"
)

// Tolerance is the multiple of the expected size a file may reach before it
// is considered weird.
const Tolerance = 1.5

// Verdict is the immutable result of classifying one file.
type Verdict struct {
	Class          Class                  `json:"class"`
	Facts          capability.ProbedFacts `json:"facts"`
	Detail         string                 `json:"detail,omitempty"`
	ExpectedBytes  int64                  `json:"expected_bytes,omitempty"`
	ThresholdBytes int64                  `json:"threshold_bytes,omitempty"`
}

// Classify compares the actual size against duration*bitrate/8. A file larger
// than Tolerance times that is weird. Facts that cannot produce an
// expectation (zero, negative or non-finite duration or bitrate) are weird
// too, with a detail naming the missing inputs.
func Classify(facts capability.ProbedFacts) Verdict {
	var missing []string
	if !usable(facts.DurationSeconds) {
		missing = append(missing, "duration")
	}
	if !usable(float64(facts.BitRate)) {
		missing = append(missing, "bitrate")
	}
	if len(missing) > 0 {
		return Verdict{
			Class:  Weird,
			Facts:  facts,
			Detail: "could not evaluate: missing " + strings.Join(missing, " and "),
		}
	}

	expected := facts.DurationSeconds * float64(facts.BitRate) / 8
	threshold := expected * Tolerance
	verdict := Verdict{
		Class:          Normal,
		Facts:          facts,
		ExpectedBytes:  int64(math.Round(expected)),
		ThresholdBytes: int64(math.Round(threshold)),
	}
	if float64(facts.SizeBytes) > threshold {
		verdict.Class = Weird
		verdict.Detail = fmt.Sprintf("size %s exceeds %s (expected %s)",
			humanize.IBytes(uint64(facts.SizeBytes)),
			humanize.IBytes(uint64(verdict.ThresholdBytes)),
			humanize.IBytes(uint64(verdict.ExpectedBytes)))
	}
	return verdict
}

// Failed builds a corrupted verdict for a file that could not be probed.
func Failed(size int64, err error) Verdict {
	detail := "probe failed"
	if err != nil {
		detail = "probe failed: " + err.Error()
	}
	return Verdict{
		Class:  Corrupted,
		Facts:  capability.ProbedFacts{SizeBytes: size},
		Detail: detail,
	}
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
