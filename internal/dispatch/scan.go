package dispatch

import (
	"context"
	"os"

	"mediasweep/internal/capability"
	"mediasweep/internal/classify"
	"mediasweep/internal/media"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
)

type scanHandler struct {
	baseHandler
	caps Capabilities
}

func (h *scanHandler) destination(*run, media.MediaFile) (string, error) { return "", nil }

// process probes the file and classifies it. Any probe failure is a
// corrupted verdict; cancellation is left for the pool to record.
func (h *scanHandler) process(ctx context.Context, r *run, j job) report.Outcome {
	var facts capability.ProbedFacts
	err := invoke(ctx, r, "probe", func(ctx context.Context) error {
		var probeErr error
		facts, probeErr = h.caps.Prober.Probe(ctx, j.file.Path)
		return probeErr
	})
	if err != nil && ctx.Err() != nil {
		return failed(j, ctx.Err())
	}

	o := outcomeFor(j)
	o.Status = report.StatusClassified
	var verdict classify.Verdict
	if err != nil {
		var size int64
		if info, statErr := os.Stat(j.file.Path); statErr == nil {
			size = info.Size()
		}
		verdict = classify.Failed(size, err)
		o.ErrorKind = services.Kind(err)
	} else {
		verdict = classify.Classify(facts)
	}
	o.Verdict = &verdict
	o.Message = verdict.Detail
	return o
}
