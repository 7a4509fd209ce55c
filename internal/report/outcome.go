package report

import (
	"time"

	"mediasweep/internal/classify"
)

// Status is the terminal state of one file.
type Status string

const (
	StatusOK         Status = "ok"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusClassified Status = "classified"
)

// Outcome is one entry in a run report.
type Outcome struct {
	Seq         int               `json:"seq"`
	RunID       string            `json:"run_id"`
	Operation   string            `json:"operation"`
	Source      string            `json:"source"`
	Rel         string            `json:"rel"`
	Destination string            `json:"destination,omitempty"`
	Status      Status            `json:"status"`
	Verdict     *classify.Verdict `json:"verdict,omitempty"`
	ErrorKind   string            `json:"error_kind,omitempty"`
	Message     string            `json:"message,omitempty"`
	ElapsedMS   int64             `json:"elapsed_ms"`
	At          time.Time         `json:"at"`
}

// Summary totals a run's outcomes.
type Summary struct {
	Total      int
	OK         int
	Skipped    int
	Failed     int
	Classified int
	Normal     int
	Weird      int
	Corrupted  int
	InputBytes int64
	Elapsed    time.Duration
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o.Status {
	case StatusOK:
		s.OK++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	case StatusClassified:
		s.Classified++
	}
	if o.Verdict != nil {
		s.InputBytes += o.Verdict.Facts.SizeBytes
		switch o.Verdict.Class {
		case classify.Normal:
			s.Normal++
		case classify.Weird:
			s.Weird++
		case classify.Corrupted:
			s.Corrupted++
		}
	}
}
