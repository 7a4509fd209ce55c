package dispatch

import (
	"context"
	"fmt"
	"strings"

	"mediasweep/internal/capability"
	"mediasweep/internal/language"
	"mediasweep/internal/media"
	"mediasweep/internal/report"
)

type tagsHandler struct {
	baseHandler
	caps      Capabilities
	removals  []string
	additions []capability.Tag
	summary   string
}

func (h *tagsHandler) prepare(_ context.Context, r *run) error {
	h.removals, h.additions = r.req.TagEdits()
	h.summary = describeEdits(h.removals, h.additions)
	return nil
}

// describeEdits renders the edit set for outcome messages, naming languages
// in English next to their code.
func describeEdits(removals []string, additions []capability.Tag) string {
	var parts []string
	if len(removals) > 0 {
		parts = append(parts, "removed "+strings.Join(removals, ", "))
	}
	if len(additions) > 0 {
		set := make([]string, 0, len(additions))
		for _, tag := range additions {
			entry := tag.Key + "=" + tag.Value
			if tag.Key == "language" {
				entry += fmt.Sprintf(" (%s)", language.DisplayName(tag.Value))
			}
			set = append(set, entry)
		}
		parts = append(parts, "set "+strings.Join(set, ", "))
	}
	return strings.Join(parts, "; ")
}

// destination is the source itself; tags are edited in place.
func (h *tagsHandler) destination(_ *run, file media.MediaFile) (string, error) {
	return file.Path, nil
}

func (h *tagsHandler) process(ctx context.Context, r *run, j job) report.Outcome {
	err := invoke(ctx, r, "set tags", func(ctx context.Context) error {
		return h.caps.Transcoder.SetTags(ctx, j.file.Path, h.removals, h.additions)
	})
	if err != nil {
		return failed(j, err)
	}
	o := succeeded(j)
	o.Message = h.summary
	return o
}
